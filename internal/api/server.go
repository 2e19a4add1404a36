package api

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/samcharles93/guppi/internal/logger"
	"github.com/samcharles93/guppi/pkg/guppi"
)

const defaultListLimit = 100

// Server exposes the block index of one GUPPI RAW stream over HTTP.
type Server struct {
	index *Index
	log   logger.Logger
}

func NewServer(index *Index, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{index: index, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(requestID)

	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/stream", s.handleStream)
	e.GET("/v1/blocks", s.handleListBlocks)
	e.GET("/v1/blocks/:index", s.handleGetHeader)
	e.GET("/v1/blocks/:index/stats", s.handleBlockStats)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStream(c *echo.Context) error {
	entries, files, err := s.index.Entries()
	if files == nil && err != nil {
		return s.writeStreamError(c, err)
	}
	info := StreamInfo{
		Object: "stream",
		Stem:   s.index.Stem(),
		Files:  files,
		Blocks: len(entries),
	}
	if len(entries) > 0 {
		h := entries[0].Header
		info.Telescope = h.Telescope()
		info.NBits = h.NBits()
		info.BlockShape = h.BlockShape()
		info.Antennas = h.Antennas()
	}
	if err != nil {
		s.log.Warn("stream index incomplete", "stem", s.index.Stem(), "blocks", len(entries), "error", err)
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleListBlocks(c *echo.Context) error {
	offset, err := parseQueryInt(c, "offset", 0)
	if err != nil {
		return s.writeStreamError(c, err)
	}
	limit, err := parseQueryInt(c, "limit", defaultListLimit)
	if err != nil {
		return s.writeStreamError(c, err)
	}

	entries, _, err := s.index.Entries()
	if err != nil && len(entries) == 0 {
		return s.writeStreamError(c, err)
	}

	out := BlockList{Object: "list", Data: []BlockEntry{}, Total: len(entries)}
	for i := offset; i < len(entries) && len(out.Data) < limit; i++ {
		out.Data = append(out.Data, toBlockEntry(entries[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetHeader(c *echo.Context) error {
	i, err := parseIndexParam(c)
	if err != nil {
		return s.writeStreamError(c, err)
	}
	e, err := s.index.Entry(i)
	if err != nil {
		return s.writeStreamError(c, err)
	}

	rec := e.Header.Record
	resp := HeaderResponse{Object: "header", Index: i, Cards: make([]HeaderCard, 0, rec.Len())}
	for _, key := range rec.Keys() {
		v, _ := rec.Get(key)
		resp.Cards = append(resp.Cards, HeaderCard{Key: key, Type: v.Type.String(), Value: v.Value})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleBlockStats(c *echo.Context) error {
	i, err := parseIndexParam(c)
	if err != nil {
		return s.writeStreamError(c, err)
	}
	b, err := s.index.ReadBlock(i)
	if err != nil {
		return s.writeStreamError(c, err)
	}
	return c.JSON(http.StatusOK, blockStats(i, b))
}

func toBlockEntry(e guppi.Entry) BlockEntry {
	h := e.Header
	out := BlockEntry{
		Index:        e.Index,
		Path:         e.Location.Path,
		HeaderOffset: e.Location.Header,
		DataOffset:   e.Location.Data,
		Telescope:    h.Telescope(),
		Variant:      h.Variant().String(),
		NBits:        h.NBits(),
		BlockShape:   h.BlockShape(),
		BlockSize:    h.BlockSize(),
		DirectIO:     h.DirectIO(),
	}
	if idx, ok := h.PktIdx(); ok {
		out.PktIdx = &idx
	}
	return out
}
