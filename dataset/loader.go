package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/membench/core"
)

// ErrUnknownDataset is returned when the dataset name is not recognized.
var ErrUnknownDataset = errors.New("unknown dataset")

// Names lists the supported dataset identifiers.
var Names = []string{"locomo", "longmemeval"}

// Load reads the named dataset from path.
func Load(name, path string) ([]core.Transcript, []core.Question, error) {
	switch strings.ToLower(name) {
	case "locomo":
		return LoadLOCOMO(path)
	case "longmemeval":
		return LoadLongMemEval(path)
	default:
		return nil, nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownDataset, name, strings.Join(Names, ", "))
	}
}
