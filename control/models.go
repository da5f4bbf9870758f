// SPDX-License-Identifier: EPL-2.0

package control

// PlayRequest selects what to play. With no field set the current
// selection is played.
type PlayRequest struct {
	Index  *int   `json:"index"`
	Name   string `json:"name"`
	Random bool   `json:"random"`
}

type VolumeRequest struct {
	Volume *int `json:"volume" binding:"required"`
}

// IntroRequest sets the intro by index or name, or clears it.
type IntroRequest struct {
	Index *int   `json:"index"`
	Name  string `json:"name"`
	Clear bool   `json:"clear"`
}

// Response is returned by every mutating route.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id"`
}

type FilesResponse struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}
