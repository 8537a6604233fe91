package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Cells are the unit</w:t></w:r><w:r><w:t xml:space="preserve"> of life.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:br w:type="page"/></w:r></w:p>
<w:p><w:r><w:t>Photosynthesis happens here.</w:t></w:r></w:p>
</w:body>
</w:document>`

const coreXMLContent = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
 xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
<dc:title>Biology Notes</dc:title>
<dc:creator>A. Student</dc:creator>
<dc:subject>Botany</dc:subject>
<cp:keywords>plants, light</cp:keywords>
<dcterms:created>2024-03-01T10:00:00Z</dcterms:created>
</cp:coreProperties>`

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestLoad(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": documentXML,
		"docProps/core.xml": coreXMLContent,
	})

	doc, err := New().Load(context.Background(), "bio.docx", data)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "Cells are the unit of life.\n\nSecond paragraph.\n\nPhotosynthesis happens here.", doc.Text)
	assert.Equal(t, 2, doc.PageAt(doc.Pages[1].Start))
	assert.Equal(t, "Biology Notes", doc.Metadata.Title)
	assert.Equal(t, "A. Student", doc.Metadata.Author)
	assert.Equal(t, "Botany", doc.Metadata.Subject)
	assert.Equal(t, "plants, light", doc.Metadata.Keywords)
	require.NotNil(t, doc.Metadata.CreatedAt)
	assert.Equal(t, 2024, doc.Metadata.CreatedAt.Year())
}

func TestLoad_NotZip(t *testing.T) {
	_, err := New().Load(context.Background(), "fake.docx", []byte("plain text"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestLoad_MissingDocumentPart(t *testing.T) {
	data := buildDocx(t, map[string]string{"other.xml": "<x/>"})
	_, err := New().Load(context.Background(), "empty.docx", data)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestLoad_NoText(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="x"><w:body><w:p></w:p></w:body></w:document>`,
	})
	_, err := New().Load(context.Background(), "blank.docx", data)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
