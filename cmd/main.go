// Package main is the entry point for the turntable music visualizer.
//
// Build:
//
//	go build -o build/turntable ./cmd
//
// Run:
//
//	./build/turntable --track song.mp3 --cover cover.jpg
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/integrii/flaggy"
	"github.com/pkg/errors"

	"github.com/tejashwikalptaru/turntable/internal/app"
	"github.com/tejashwikalptaru/turntable/internal/logger"
)

// AppDesc is the app description
const AppDesc = "A spinning record player that dances to your music"

func main() {
	log.SetFlags(0)

	config := app.DefaultConfig()
	if doFlags(&config) {
		return
	}
	chk(config.Validate(), "invalid config")

	application, err := app.NewApplication(config)
	chk(err, "failed to create application")

	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		}
	}()

	// blocks until the window is closed
	application.Run()
}

// doFlags parses the command line into config. It returns true when the
// invocation was fully handled and the program should exit.
func doFlags(config *app.Config) bool {
	parser := flaggy.NewParser("turntable")
	parser.Description = AppDesc
	parser.Version = app.GetVersionInfo().FullString()

	versionCmd := flaggy.Subcommand{
		Name:        "version",
		ShortName:   "v",
		Description: "print version information and exit",
	}
	parser.AttachSubcommand(&versionCmd, 1)

	logLevel := config.LogLevel.String()

	parser.String(&config.TrackPath, "t", "track", "audio file to load on start (.mp3 or .wav)")
	parser.String(&config.CoverPath, "c", "cover", "cover image for --track (defaults to one found next to it)")
	parser.String(&config.MusicDir, "d", "music-dir", "folder to scan into the track selector")
	parser.Int(&config.Width, "", "width", "drawing surface width in pixels")
	parser.Int(&config.Height, "", "height", "drawing surface height in pixels")
	parser.Int(&config.FFTSize, "n", "fft-size", "analysis window (power of two, bars = half)")
	parser.Int(&config.SampleRate, "r", "rate", "output sample rate")
	parser.Bool(&config.UseMockAudio, "m", "mock", "use synthetic audio data instead of decoding")
	parser.Bool(&config.MuteOutput, "", "mute", "analyse without playing through the speakers")
	parser.String(&logLevel, "l", "log-level", "log level (debug, info, warn, error)")
	parser.Bool(&config.JSONLogs, "", "json-logs", "write logs as JSON")

	chk(parser.Parse(), "failed to parse arguments")

	if versionCmd.Used {
		fmt.Println(app.GetVersionInfo().FullString())
		return true
	}

	level, err := logger.ParseLevel(logLevel)
	chk(errors.Wrap(err, logLevel), "invalid log level")
	config.LogLevel = level
	return false
}

func chk(err error, wrap string) {
	if err != nil {
		log.Fatalln(wrap+": ", err)
	}
}
