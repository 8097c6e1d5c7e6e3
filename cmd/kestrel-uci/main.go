package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/kestrelchess/kestrel/internal/engine"
	"github.com/kestrelchess/kestrel/internal/uci"
)

// Default network file names.
const (
	defaultValueNet  = "value.bin"
	defaultPolicyNet = "policy.bin"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	// Create engine with a 32MB value hash table.
	eng := engine.NewEngine(32)

	// Auto-load the value/policy networks from default locations.
	if err := autoLoadNetworks(eng); err != nil {
		log.Printf("Warning: networks not loaded: %v (leaves get an even win/draw/loss split until EvalFile/EvalFilePolicy are set)", err)
	}

	// Create and run UCI protocol handler
	protocol := uci.New(eng)
	protocol.Run()
}

// autoLoadNetworks attempts to load the value/policy weight files from
// standard locations.
func autoLoadNetworks(eng *engine.Engine) error {
	searchPaths := []string{
		getAppSupportDir(),
		filepath.Join(getHomeDir(), ".kestrel", "nets"),
		"./nets",
		".",
	}

	for _, dir := range searchPaths {
		valuePath := filepath.Join(dir, defaultValueNet)
		policyPath := filepath.Join(dir, defaultPolicyNet)

		if fileExists(valuePath) && fileExists(policyPath) {
			if err := eng.LoadNNUE(valuePath, policyPath); err != nil {
				log.Printf("Failed to load networks from %s: %v", dir, err)
				continue
			}
			log.Printf("Networks loaded from %s", dir)
			return nil
		}
	}

	return os.ErrNotExist
}

// getAppSupportDir returns the application support directory for kestrel.
func getAppSupportDir() string {
	home := getHomeDir()
	return filepath.Join(home, "Library", "Application Support", "kestrel", "nets")
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
