package native

import "fmt"

func errNotAReference(index int) error {
	return fmt.Errorf("native: argument %d isn't tagged Reference", index)
}
