package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/mannequin/converter"
	"github.com/binzume/mannequin/gltfutil"
	"github.com/binzume/mannequin/profile"
	"github.com/binzume/mannequin/rig"
	"github.com/binzume/mannequin/scene"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + ".configured.glb"
}

func defaultSessionFile(input string) string {
	path := input[0:len(input)-len(filepath.Ext(input))] + ".session.json"
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] input.glb [output.glb]\n", os.Args[0])
		flag.PrintDefaults()
	}
	sessionFile := flag.String("session", "", "design session (.json). default: input.session.json")
	profilesFile := flag.String("profiles", "", "asset profiles (.yaml) merged over the built-in set")
	profileKey := flag.String("profile", "", "profile key. default: selected by session gender and version")
	assetDir := flag.String("assets", "", "directory of profile assets for gender switches. default: input dir")
	atlasFile := flag.String("atlas", "", "write the texture atlas (.png or .webp)")
	slicesDir := flag.String("slices", "", "write per-part PNG slices to this directory")
	inspect := flag.Bool("inspect", false, "print editable parts and exit")
	watch := flag.Bool("watch", false, "re-export whenever the session file changes")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)
	output := flag.Arg(1)
	if output == "" {
		output = defaultOutputFile(input)
	}

	doc, err := gltfutil.Load(input)
	if err != nil {
		log.Fatal(err)
	}
	if strings.ToLower(filepath.Ext(input)) == ".gltf" {
		if err := gltfutil.ToSingleFile(doc, filepath.Dir(input)); err != nil {
			log.Fatal(err)
		}
	}

	if *inspect {
		asset, err := scene.FromGLTF(doc, filepath.Base(input))
		if err != nil {
			log.Fatal(err)
		}
		report := rig.Inspect(asset.Root)
		if _, err := report.WriteTo(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	profiles, err := loadProfiles(*profilesFile)
	if err != nil {
		log.Fatal(err)
	}
	if *sessionFile == "" {
		*sessionFile = defaultSessionFile(input)
	}
	session, err := loadSession(*sessionFile)
	if err != nil {
		log.Fatal(err)
	}
	st := session.Snapshot()

	var p *profile.Profile
	if *profileKey != "" {
		p, err = profiles.Get(*profileKey)
	} else {
		p, err = profiles.Select(string(st.Gender), st.Version)
	}
	if err != nil {
		log.Fatal(err)
	}

	if *assetDir == "" {
		*assetDir = filepath.Dir(input)
	}
	conv := converter.NewDesignToGLTFConverter(&converter.DesignToGLTFOption{
		ImageDir: sessionDir(*sessionFile, input),
		Loader:   assetLoader(profiles, *assetDir),
	})
	defer conv.Close()

	if err := conv.Load(doc, p); err != nil {
		log.Fatal(err)
	}
	conv.Bind(session)

	outputs := &outputs{glb: output, atlas: *atlasFile, slices: *slicesDir}
	if err := outputs.write(conv); err != nil {
		log.Fatal(err)
	}

	if *watch {
		if *sessionFile == "" {
			log.Fatal("-watch needs a session file")
		}
		if err := watchSession(*sessionFile, session, conv, outputs); err != nil {
			log.Fatal(err)
		}
	}
}

func sessionDir(sessionFile, input string) string {
	if sessionFile != "" {
		return filepath.Dir(sessionFile)
	}
	return filepath.Dir(input)
}

func isWebP(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".webp"
}
