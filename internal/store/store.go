package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	FormatJson = "json"
	FormatYaml = "yaml"
)

var ErrNotFound = errors.New("roster not found")

// FileStore keeps one file per roster, named after the roster id. Commit is all-or-nothing: readers see either the
// previous file or the complete new one
type FileStore struct {
	dir    string
	format string
}

func NewFileStore(dir, format string) (*FileStore, error) {
	if format != FormatJson && format != FormatYaml {
		return nil, errors.Errorf("unknown roster format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cannot create roster directory %v", dir)
	}
	return &FileStore{dir: dir, format: format}, nil
}

func (store *FileStore) Path(id string) string {
	return filepath.Join(store.dir, id+"."+store.format)
}

// Commit persists the roster and returns the path it was written to
func (store *FileStore) Commit(roster model.Roster) (string, error) {
	if roster.Id == "" {
		return "", errors.New("cannot commit a roster without id")
	}

	content, err := Encode(roster, store.format)
	if err != nil {
		return "", err
	}

	temp, err := os.CreateTemp(store.dir, "."+roster.Id+"-*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "cannot create temporary roster file")
	}
	defer os.Remove(temp.Name()) // No-op once renamed

	if _, err := temp.Write(content); err != nil {
		temp.Close()
		return "", errors.Wrap(err, "cannot write roster")
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		return "", errors.Wrap(err, "cannot flush roster")
	}
	if err := temp.Close(); err != nil {
		return "", errors.Wrap(err, "cannot close roster file")
	}

	path := store.Path(roster.Id)
	if err := os.Rename(temp.Name(), path); err != nil {
		return "", errors.Wrapf(err, "cannot commit roster %v", roster.Id)
	}
	return path, nil
}

func (store *FileStore) Load(id string) (model.Roster, error) {
	content, err := os.ReadFile(store.Path(id))
	if errors.Is(err, os.ErrNotExist) {
		return model.Roster{}, errors.Wrapf(ErrNotFound, "roster %v", id)
	}
	if err != nil {
		return model.Roster{}, errors.Wrapf(err, "cannot read roster %v", id)
	}

	var roster model.Roster
	switch store.format {
	case FormatYaml:
		err = yaml.Unmarshal(content, &roster)
	default:
		err = json.Unmarshal(content, &roster)
	}
	if err != nil {
		return model.Roster{}, errors.Wrapf(err, "cannot decode roster %v", id)
	}
	return roster, nil
}

// Encode renders any value (a roster, diagnostics) as indented json or yaml
func Encode(value any, format string) ([]byte, error) {
	switch format {
	case FormatJson:
		content, err := json.MarshalIndent(value, "", "  ")
		return content, errors.Wrap(err, "cannot encode json")
	case FormatYaml:
		content, err := yaml.Marshal(value)
		return content, errors.Wrap(err, "cannot encode yaml")
	default:
		return nil, errors.Errorf("unknown format %q", format)
	}
}
