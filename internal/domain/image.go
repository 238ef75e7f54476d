package domain

import "fmt"

// StoredImage represents one logical uploaded asset. Only derived renditions
// are persisted; the source bytes are transient. BasePath is stable for the
// lifetime of the asset and every rendition key is derived from it.
type StoredImage struct {
	BasePath string
	Width    int
	Height   int
}

// Rendition is one concrete encoded output derived from a StoredImage. The
// key is deterministic for a (basePath, variant, format) triple, so an
// existence check can short-circuit re-computation. Renditions are immutable
// once written.
type Rendition struct {
	Key    string
	Name   string
	Format ImageFormat
	Width  int
	Height int
	Bytes  []byte
}

// VariantSpec names one of the fixed eager output sizes. MaxWidth bounds the
// longer edge; sources smaller than the box are never upscaled.
type VariantSpec struct {
	Name     string
	MaxWidth int
}

var EagerVariants = []VariantSpec{
	{Name: "thumb", MaxWidth: ThumbWidth},
	{Name: "detail", MaxWidth: DetailWidth},
}

// FileName returns the object file name for this variant in the given
// format, e.g. "thumb-400.jpg" or "detail-800.webp".
func (v VariantSpec) FileName(format ImageFormat) string {
	return fmt.Sprintf("%s-%d.%s", v.Name, v.MaxWidth, format.Ext())
}

// Key returns the full object key for this variant under a base path.
func (v VariantSpec) Key(basePath string, format ImageFormat) string {
	return basePath + "/" + v.FileName(format)
}

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
)

func (f ImageFormat) Ext() string {
	if f == FormatWebP {
		return "webp"
	}
	return "jpg"
}

func (f ImageFormat) ContentType() string {
	if f == FormatWebP {
		return "image/webp"
	}
	return "image/jpeg"
}

// UploadResult is the single typed contract returned to upload callers.
type UploadResult struct {
	Key        string      `json:"key"`
	Width      int         `json:"width,omitempty"`
	Height     int         `json:"height,omitempty"`
	Renditions []Rendition `json:"-"`
}

const (
	ThumbWidth  = 400
	DetailWidth = 800

	VariantJPEGQuality  = 82
	VariantWebPQuality  = 82
	OnDemandJPEGQuality = 75

	DefaultMaxUploadSize  = 32 << 20
	MaxThumbnailDimension = 4000

	UploadKeyPrefix    = "uploads/"
	ThumbnailKeyPrefix = "thumbnails/"

	// Rendition keys encode every input that determines their content, so a
	// stored object never changes once written.
	CacheControlImmutable = "public, max-age=31536000, immutable"

	// Hard caps for the key resolver's unwrapping passes.
	MaxThumbnailUnwraps = 5
	MaxDecodePasses     = 3
)
