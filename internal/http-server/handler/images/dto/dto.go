package dto

// ThumbnailRequest carries the parsed query of the on-demand endpoint.
type ThumbnailRequest struct {
	Source string `validate:"required"`
	Width  int    `validate:"required,min=1,max=4000"`
	Height int    `validate:"required,min=1,max=4000"`
}

type UploadDataRequest struct {
	DataURL  string `json:"dataUrl" validate:"required"`
	Filename string `json:"filename"`
}

type RenditionInfo struct {
	Key    string `json:"key"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

type UploadResponse struct {
	Key        string          `json:"key"`
	URL        string          `json:"url"`
	Width      int             `json:"width,omitempty"`
	Height     int             `json:"height,omitempty"`
	Renditions []RenditionInfo `json:"renditions"`
}

type ResolveResponse struct {
	Src    string `json:"src"`
	SrcSet string `json:"srcset,omitempty"`
	Sizes  string `json:"sizes,omitempty"`
}

// ErrorResponse is deliberately generic so storage credentials and internal
// paths never leak to clients; detail goes to the server log only.
type ErrorResponse struct {
	Error string `json:"error"`
}
