// SPDX-License-Identifier: EPL-2.0

package playlist

import "errors"

var (
	ErrNoSuchEntry     = errors.New("playlist: no such entry")
	ErrNothingSelected = errors.New("playlist: nothing selected to play")
	ErrVolumeRange     = errors.New("playlist: volume out of range 0..100")
	ErrClosed          = errors.New("playlist: closed")
)
