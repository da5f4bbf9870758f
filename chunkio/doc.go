// SPDX-License-Identifier: EPL-2.0

// Package chunkio is the file capability the streaming engine reads audio
// through.
//
// A File reads fixed-size chunks and reports the outcome as a Result whose
// Kind separates a complete read, an end of file after a partial read, and
// a hard failure:
//
//	res := f.Read(buf)
//	switch res.Kind {
//	case chunkio.KindOK:
//	    // buf is full
//	case chunkio.KindEOF:
//	    // buf[:res.N] is the tail of the file
//	case chunkio.KindError:
//	    return res.Error("read", name)
//	}
//
// Two FileSystem variants exist: OSFileSystem for ordinary files and
// FlashFileSystem for any fs.FS, such as sounds compiled in with embed.
package chunkio
