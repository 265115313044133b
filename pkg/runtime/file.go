package runtime

import (
	"context"
	"encoding/json"
	"os"

	"github.com/matzehuels/topolab/pkg/errors"
)

// FileSource re-reads a JSON state file on every refresh. It is the feed
// used when an external collector dumps container state to disk; a missing
// file means no live state rather than an error.
type FileSource struct {
	Path string
}

func (s FileSource) States(ctx context.Context) (StateMap, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "read state file %s", s.Path)
	}

	var states StateMap
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, errors.Wrap(errors.CodeInvalidInput, err, "parse state file %s", s.Path)
	}
	return states, nil
}

var _ Source = FileSource{}
