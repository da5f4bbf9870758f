// SPDX-License-Identifier: EPL-2.0

// Package control exposes a playlist over HTTP.
package control

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ik5/wavdac/playlist"
)

// Playlist is the part of playlist.Manager served over HTTP.
type Playlist interface {
	Files() []string
	Status() playlist.Status
	Play() error
	PlayIndex(i int) error
	PlayName(name string) error
	PlayRandom() error
	Pause() error
	SetVolume(v int) error
	SetIntroIndex(i int) error
	SetIntroName(name string) error
	ClearIntro()
}

type Handler struct {
	pl      Playlist
	log     *slog.Logger
	version string
}

func NewHandler(pl Playlist, version string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{pl: pl, version: version, log: log.With("component", "control")}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
	})
}

func (h *Handler) Files(c *gin.Context) {
	files := h.pl.Files()
	c.JSON(http.StatusOK, FilesResponse{Files: files, Count: len(files)})
}

func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.pl.Status())
}

func (h *Handler) Play(c *gin.Context) {
	var req PlayRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.reply(c, http.StatusBadRequest, err)
			return
		}
	}

	var err error
	switch {
	case req.Random:
		err = h.pl.PlayRandom()
	case req.Index != nil:
		err = h.pl.PlayIndex(*req.Index)
	case req.Name != "":
		err = h.pl.PlayName(req.Name)
	default:
		err = h.pl.Play()
	}
	h.reply(c, statusOf(err), err)
}

func (h *Handler) Pause(c *gin.Context) {
	err := h.pl.Pause()
	h.reply(c, statusOf(err), err)
}

func (h *Handler) Resume(c *gin.Context) {
	err := h.pl.Play()
	h.reply(c, statusOf(err), err)
}

func (h *Handler) Volume(c *gin.Context) {
	var req VolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reply(c, http.StatusBadRequest, err)
		return
	}

	err := h.pl.SetVolume(*req.Volume)
	h.reply(c, statusOf(err), err)
}

func (h *Handler) Intro(c *gin.Context) {
	var req IntroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reply(c, http.StatusBadRequest, err)
		return
	}

	var err error
	switch {
	case req.Clear:
		h.pl.ClearIntro()
	case req.Index != nil:
		err = h.pl.SetIntroIndex(*req.Index)
	case req.Name != "":
		err = h.pl.SetIntroName(req.Name)
	default:
		h.reply(c, http.StatusBadRequest, errors.New("one of index, name or clear is required"))
		return
	}
	h.reply(c, statusOf(err), err)
}

func (h *Handler) reply(c *gin.Context, status int, err error) {
	resp := Response{Success: err == nil, RequestID: c.GetString(requestIDKey)}
	if err != nil {
		resp.Message = err.Error()
		h.log.Warn("request failed",
			"path", c.FullPath(),
			"status", status,
			"request_id", resp.RequestID,
			"err", err,
		)
	}
	c.JSON(status, resp)
}

func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, playlist.ErrNoSuchEntry):
		return http.StatusNotFound
	case errors.Is(err, playlist.ErrNothingSelected):
		return http.StatusConflict
	case errors.Is(err, playlist.ErrVolumeRange):
		return http.StatusBadRequest
	case errors.Is(err, playlist.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
