package notify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// recipientsFile is the YAML shape of the recipients file.
//
//	recipients:
//	  - "+447700900001"
//	  - "+447700900002"
type recipientsFile struct {
	Recipients []string `yaml:"recipients"`
}

// FileRecipientSource loads extra security alert recipients from a YAML
// file. These supplement admin users from the database; the two lists
// are not deduplicated, so a number present in both receives two
// notifications.
type FileRecipientSource struct {
	path string
}

// NewFileRecipientSource creates a recipient source backed by a YAML file.
// An empty path yields an empty recipient list.
func NewFileRecipientSource(path string) *FileRecipientSource {
	return &FileRecipientSource{path: path}
}

// Recipients reads the file and returns the configured phone numbers.
//
// The file is re-read on every call so edits take effect without a
// restart. A missing file is not an error; it returns an empty list.
func (s *FileRecipientSource) Recipients() ([]string, error) {
	if s.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading recipients file: %w", err)
	}

	var parsed recipientsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing recipients file: %w", err)
	}

	// Drop empty entries
	recipients := make([]string, 0, len(parsed.Recipients))
	for _, r := range parsed.Recipients {
		if r != "" {
			recipients = append(recipients, r)
		}
	}

	return recipients, nil
}
