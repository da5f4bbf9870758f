// SPDX-License-Identifier: EPL-2.0

package stream

import "errors"

var (
	// ErrNoBufferSize means the byte rate is above every entry of the
	// buffer size table.
	ErrNoBufferSize = errors.New("no buffer size for byte rate")
	ErrClosed       = errors.New("stream closed")
)
