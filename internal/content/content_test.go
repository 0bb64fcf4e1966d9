package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	site, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, site.About)
	require.Len(t, site.Experience, 10)
	assert.Equal(t, "Sales Associate", site.Experience[0].Title)
	assert.Equal(t, "Ryo Gas", site.Experience[0].Company)
	require.Len(t, site.Certifications, 10)
	assert.Empty(t, site.Certifications[9].URL)
	assert.Equal(t, "Nov 2026", site.Certifications[3].Expiry)
	require.Len(t, site.Skills, 6)
	assert.Equal(t, []string{"Python", "C++", "Bash", "CMake"}, site.Skills[3].Skills)
	require.Len(t, site.Projects, 11)
	assert.Empty(t, site.Projects[0].GitHub)
	require.Len(t, site.Education, 1)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "experience: [unterminated"},
		{"experience without company", "experience:\n  - title: Dev\n"},
		{"certification without issuer", "certifications:\n  - name: Cert\n"},
		{"project without title", "projects:\n  - summary: nothing\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidContent)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte("about: hello\nprojects:\n  - title: One\n"), 0o600))

	site, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", site.About)
	require.Len(t, site.Projects, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	site, err = Load("")
	require.NoError(t, err)
	assert.Len(t, site.Projects, 11)
}
