package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	synthcore "github.com/cbegin/synthcore-go"
	"github.com/cbegin/synthcore-go/internal/synth"
	"github.com/cbegin/synthcore-go/sequence"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		scorePath  = flag.String("file", "", "path to a YAML score file (required)")
		outPath    = flag.String("o", "", "render to a WAV file instead of playing")
		loop       = flag.Bool("loop", false, "loop playback until interrupted")
		tail       = flag.Float64("tail", 0.5, "seconds of release tail after the last event")
		volume     = flag.Float64("volume", 1.0, "master gain scalar")
		voices     = flag.Int("voices", 0, "polyphony limit (0 = default)")
	)
	flag.Parse()

	if *scorePath == "" {
		flag.Usage()
		log.Fatal("missing -file")
	}
	seq, err := sequence.LoadScoreFile(*scorePath, *sampleRate)
	if err != nil {
		log.Fatal(err)
	}

	params := synth.DefaultParams()
	if *voices > 0 {
		params.Polyphony = *voices
	}
	engine := synth.New(*sampleRate, params)
	engine.SetMasterGain(*volume)

	if *outPath != "" {
		if err := renderToWAV(seq, engine, *sampleRate, *tail, *outPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	pl, err := synthcore.NewPlayer(*sampleRate,
		synthcore.WithSynth(engine),
		synthcore.WithLoopPlayback(*loop),
		synthcore.WithReleaseTail(*tail),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.Play(seq); err != nil {
		log.Fatal(err)
	}
	pl.Wait()
	fmt.Println("playback completed")
}

func renderToWAV(seq *sequence.Sequence, engine *synth.Engine, sampleRate int, tail float64, path string) error {
	samples := synthcore.RenderSequence(seq, engine, sampleRate, tail)
	data := synthcore.EncodeWAVFloat32LE(samples, sampleRate, 2)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d frames at %d Hz)\n", path, len(samples)/2, sampleRate)
	return nil
}
