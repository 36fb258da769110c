package ticket

import (
	"errors"
	"os"
)

// Artifact is the set of files produced for one order. It is owned by a single
// processor run and must be released when that run ends.
type Artifact struct {
	OrderID           string
	BarcodeImagePath  string
	BarcodeVectorPath string
	DocumentPath      string
}

// ReleaseTransient removes the barcode files. Safe to call more than once.
func (a *Artifact) ReleaseTransient() error {
	if a == nil {
		return nil
	}
	return errors.Join(
		removeAndClear(&a.BarcodeImagePath),
		removeAndClear(&a.BarcodeVectorPath),
	)
}

// ReleaseDocument removes the rendered document. Safe to call more than once.
func (a *Artifact) ReleaseDocument() error {
	if a == nil {
		return nil
	}
	return removeAndClear(&a.DocumentPath)
}

// Release removes every file the artifact still holds.
func (a *Artifact) Release() error {
	return errors.Join(a.ReleaseTransient(), a.ReleaseDocument())
}

// Paths lists the files currently held.
func (a *Artifact) Paths() []string {
	if a == nil {
		return nil
	}
	var out []string
	for _, p := range []string{a.BarcodeImagePath, a.BarcodeVectorPath, a.DocumentPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func removeAndClear(path *string) error {
	if *path == "" {
		return nil
	}
	if err := os.Remove(*path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	*path = ""
	return nil
}
