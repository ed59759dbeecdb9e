package convert

import (
	"os"

	"ragcore/internal/rerrors"
)

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rerrors.DocumentProcessing("convert", "reading source file failed", err)
	}
	return data, nil
}
