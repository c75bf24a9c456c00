// Package api provides the REST API server for Bearmony
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jeremylesniewski/Bearmony/pkg/config"
	"github.com/jeremylesniewski/Bearmony/pkg/midifile"
	"github.com/jeremylesniewski/Bearmony/pkg/theory"
)

// @title Bearmony API
// @version 1.0
// @description API for browsing chord/progression tables and rendering MIDI files
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/chords", listChords)
		v1.GET("/scales", listScales)
		v1.GET("/progressions", listProgressions)
		v1.GET("/instruments", listInstruments)
		v1.POST("/render/chord", handleRenderChord)
		v1.POST("/render/progression", handleRenderProgression)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "bearmony",
	})
}

// listChords godoc
// @Summary List chord formulas
// @Description Returns all chord suffixes, grouped by note count
// @Tags tables
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/chords [get]
func listChords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"chords":  theory.ChordNames(),
		"by_size": theory.ChordsBySize(),
	})
}

// listScales godoc
// @Summary List scale formulas
// @Tags tables
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/scales [get]
func listScales(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scales": theory.ScaleNames()})
}

// listProgressions godoc
// @Summary List named progressions
// @Tags tables
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/progressions [get]
func listProgressions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"progressions": theory.ProgressionNames()})
}

// listInstruments godoc
// @Summary List instrument program numbers
// @Tags tables
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/instruments [get]
func listInstruments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"instruments": theory.InstrumentNames()})
}

// renderRequest mirrors the config surface over JSON. Zero fields fall
// back to the defaults.
type renderRequest struct {
	Root         string  `json:"root"`
	Chord        string  `json:"chord"`
	Progression  string  `json:"progression"`
	Mode         string  `json:"mode"`
	NoteValue    int     `json:"note_value"`
	Instrument   string  `json:"instrument"`
	Octave       int     `json:"octave"`
	Volume       int     `json:"volume"`
	VelocityMode string  `json:"velocity_mode"`
	Swing        float64 `json:"swing"`
	Tempo        float64 `json:"tempo"`
	Tacts        int     `json:"tacts"`
	Seed         int64   `json:"seed"`
}

func (req renderRequest) toConfig() config.Config {
	cfg := config.Default()
	if req.Root != "" {
		cfg.Root = req.Root
	}
	if req.Chord != "" {
		cfg.ChordID = req.Chord
	}
	cfg.Progression = req.Progression
	if req.Mode != "" {
		cfg.Mode = req.Mode
	}
	if req.NoteValue != 0 {
		cfg.NoteValue = req.NoteValue
	}
	if req.Instrument != "" {
		cfg.Instrument = req.Instrument
	}
	cfg.Octave = req.Octave
	if req.Volume != 0 {
		cfg.Volume = req.Volume
	}
	if req.VelocityMode != "" {
		cfg.VelocityMode = req.VelocityMode
	}
	cfg.Swing = req.Swing
	if req.Tempo != 0 {
		cfg.Tempo = req.Tempo
	}
	if req.Tacts != 0 {
		cfg.Tacts = req.Tacts
	}
	cfg.Seed = req.Seed
	return cfg
}

// handleRenderChord godoc
// @Summary Render a chord as a MIDI file
// @Description Renders the requested chord and returns the .mid bytes
// @Tags render
// @Accept json
// @Produce application/octet-stream
// @Param request body renderRequest true "Render parameters"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/render/chord [post]
func handleRenderChord(c *gin.Context) {
	handleRender(c, false)
}

// handleRenderProgression godoc
// @Summary Render a progression as a MIDI file
// @Description Renders the requested progression and returns the .mid bytes
// @Tags render
// @Accept json
// @Produce application/octet-stream
// @Param request body renderRequest true "Render parameters"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/render/progression [post]
func handleRenderProgression(c *gin.Context) {
	handleRender(c, true)
}

func handleRender(c *gin.Context, withProgression bool) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cfg := req.toConfig()
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if withProgression && cfg.Progression == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "progression required"})
		return
	}

	tl, err := cfg.Timeline(withProgression)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, theory.ErrUnknownFormula) || errors.Is(err, theory.ErrUnknownProgression) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	data, err := midifile.Encode(tl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	name := fmt.Sprintf("%s-%s.mid", cfg.Root, cfg.ChordID)
	if withProgression {
		name = fmt.Sprintf("%s-%s-progression.mid", cfg.Root, cfg.ChordID)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.Data(http.StatusOK, "audio/midi", data)
}
