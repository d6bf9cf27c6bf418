package notify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecipientsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipients.yaml")
	content := `recipients:
  - "+447700900001"
  - "+447700900002"
  - ""
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing recipients file: %v", err)
	}

	source := NewFileRecipientSource(path)
	recipients, err := source.Recipients()
	if err != nil {
		t.Fatalf("Recipients() error = %v", err)
	}

	want := []string{"+447700900001", "+447700900002"}
	if len(recipients) != len(want) {
		t.Fatalf("Recipients() count = %d, want %d", len(recipients), len(want))
	}
	for i, r := range want {
		if recipients[i] != r {
			t.Errorf("Recipients()[%d] = %q, want %q", i, recipients[i], r)
		}
	}
}

func TestRecipientsMissingFile(t *testing.T) {
	source := NewFileRecipientSource(filepath.Join(t.TempDir(), "missing.yaml"))

	recipients, err := source.Recipients()
	if err != nil {
		t.Fatalf("Recipients() error = %v for missing file, want nil", err)
	}
	if len(recipients) != 0 {
		t.Errorf("Recipients() count = %d for missing file, want 0", len(recipients))
	}
}

func TestRecipientsEmptyPath(t *testing.T) {
	source := NewFileRecipientSource("")

	recipients, err := source.Recipients()
	if err != nil {
		t.Fatalf("Recipients() error = %v for empty path, want nil", err)
	}
	if len(recipients) != 0 {
		t.Errorf("Recipients() count = %d for empty path, want 0", len(recipients))
	}
}

func TestRecipientsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipients.yaml")
	if err := os.WriteFile(path, []byte("recipients: {not: [valid"), 0o600); err != nil {
		t.Fatalf("writing recipients file: %v", err)
	}

	source := NewFileRecipientSource(path)
	if _, err := source.Recipients(); err == nil {
		t.Error("Recipients() expected error for invalid YAML")
	}
}
