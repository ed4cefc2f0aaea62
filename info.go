package unpdf

import (
	"encoding/json"
	"time"
)

// DocumentInfo is the metadata returned by unpdf_get_info. The engine emits
// snake_case keys; decoding matches them case-insensitively.
type DocumentInfo struct {
	Created    *time.Time `json:"created"`
	Modified   *time.Time `json:"modified"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Subject    string     `json:"subject"`
	Keywords   string     `json:"keywords"`
	Creator    string     `json:"creator"`
	Producer   string     `json:"producer"`
	PDFVersion string     `json:"pdf_version"`
	PageCount  int        `json:"page_count"`
	Encrypted  bool       `json:"encrypted"`
}

// ParseDocumentInfo decodes the engine's document-info JSON.
func ParseDocumentInfo(data []byte) (*DocumentInfo, error) {
	var info DocumentInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Summary is the handle-level view of a document: what can be read from a
// parsed document without re-opening the file.
type Summary struct {
	Title         string
	Author        string
	SectionCount  int
	ResourceCount int
}

// ResourceType classifies an embedded resource.
type ResourceType string

const (
	ResourceImage      ResourceType = "image"
	ResourceFont       ResourceType = "font"
	ResourceAttachment ResourceType = "attachment"
	ResourceOther      ResourceType = "other"
)

// ResourceInfo describes one embedded asset of a parsed document.
type ResourceInfo struct {
	Width            *uint32      `json:"width,omitempty"`
	Height           *uint32      `json:"height,omitempty"`
	BitsPerComponent *uint8       `json:"bits_per_component,omitempty"`
	ID               string       `json:"id"`
	MimeType         string       `json:"mime_type"`
	Type             ResourceType `json:"resource_type,omitempty"`
	Filename         string       `json:"filename,omitempty"`
	ColorSpace       string       `json:"color_space,omitempty"`
	Size             int64        `json:"size"`
}

// ParseResourceInfo decodes one resource descriptor.
func ParseResourceInfo(data []byte) (*ResourceInfo, error) {
	var info ResourceInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ParseResourceIDs decodes the JSON array returned by
// unpdf_get_resource_ids. The result is never nil.
func ParseResourceIDs(data []byte) ([]string, error) {
	ids := []string{}
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

var extensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/tiff":      "tiff",
	"image/bmp":       "bmp",
	"image/webp":      "webp",
	"image/jp2":       "jp2",
	"image/jpeg2000":  "jp2",
	"application/pdf": "pdf",
	"font/ttf":        "ttf",
	"font/truetype":   "ttf",
	"font/otf":        "otf",
	"font/opentype":   "otf",
	"font/woff":       "woff",
	"font/woff2":      "woff2",
}

// IsImage reports whether the resource is an image.
func (r *ResourceInfo) IsImage() bool {
	return r.Type == ResourceImage
}

// Extension returns the file extension implied by the MIME type. Unknown
// image formats map to "raw", everything else to "bin".
func (r *ResourceInfo) Extension() string {
	if ext, ok := extensions[r.MimeType]; ok {
		return ext
	}
	if r.IsImage() {
		return "raw"
	}
	return "bin"
}

// SuggestedFilename returns the original filename when known, otherwise
// the id with the extension of the MIME type.
func (r *ResourceInfo) SuggestedFilename() string {
	if r.Filename != "" {
		return r.Filename
	}
	return r.ID + "." + r.Extension()
}
