package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"gridtrack"
	"gridtrack/oto"
	"gridtrack/tracker"
	"gridtrack/version"
)

func main() {
	play := flag.Bool("p", false, "Play the input songs on the audio device (default behaviour when no other output is defined).")
	wavOut := flag.Bool("w", false, "Render the song deterministically and save it as a .wav file.")
	directory := flag.String("o", "", "Directory where to place output files. By default, next to the song file.")
	convert := flag.String("c", "", "Write the song back out to this path; .yml/.yaml gives YAML, anything else the text format.")
	row := flag.Int("row", -1, "Play only this row instead of the whole song.")
	bpm := flag.Int("bpm", 0, "Override the song tempo (20-300) before playing or rendering.")
	stats := flag.Bool("stats", false, "Print peak and RMS levels of the rendered song.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}
	if !*wavOut && !*stats && *convert == "" {
		*play = true
	}
	retval := 0
	for _, path := range flag.Args() {
		if err := process(path, *play, *wavOut, *stats, *convert, *directory, *row, *bpm); err != nil {
			fmt.Fprintf(os.Stderr, "could not process %v: %v\n", path, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func process(path string, play, wavOut, stats bool, convert, directory string, row, bpm int) error {
	song, err := gridtrack.LoadSongFile(path)
	if err != nil {
		return err
	}
	if bpm != 0 {
		if err := song.SetBPM(bpm); err != nil {
			return err
		}
	}
	if convert != "" {
		if err := gridtrack.SaveSongFile(convert, song); err != nil {
			return err
		}
	}
	if wavOut || stats {
		buffer, err := gridtrack.Render(song, nil)
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if stats {
			v := tracker.AnalyzeVolume(buffer)
			fmt.Printf("%v: peak %.1f / %.1f dB, RMS %.1f / %.1f dB\n", path,
				tracker.DB(v.Peak[0]), tracker.DB(v.Peak[1]), tracker.DB(v.RMS[0]), tracker.DB(v.RMS[1]))
		}
		if wavOut {
			wav, err := gridtrack.Wav(buffer)
			if err != nil {
				return err
			}
			out := outputPath(path, directory, ".wav")
			if err := os.WriteFile(out, wav, 0644); err != nil {
				return fmt.Errorf("could not write %v: %w", out, err)
			}
			fmt.Printf("wrote %v (%.2f s)\n", out, float64(len(buffer))/2/gridtrack.SampleRate)
		}
	}
	if play {
		return playSong(song, row)
	}
	return nil
}

func playSong(song *gridtrack.Song, row int) error {
	audioContext, err := oto.NewContext()
	if err != nil {
		return fmt.Errorf("could not acquire audio context: %w", err)
	}
	defer audioContext.Close()

	broker := tracker.NewBroker()
	player := tracker.NewPlayer(broker, audioContext, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go player.Run(ctx)
	tracker.TrySend(broker.ToPlayer, any(tracker.SongMsg{Song: song.Copy()}))

	if row >= 0 {
		tracker.TrySend(broker.ToPlayer, any(tracker.PlayRowMsg{Row: row}))
		// the player owns the timing; just give the row time to sound
		time.Sleep(time.Duration(song.RowDurationMs())*time.Millisecond + 300*time.Millisecond)
		return drainAlerts(broker)
	}

	// Raw mode so a single keypress stops playback, like the original
	// tracker. Restored before returning no matter how playback ends.
	fd := int(os.Stdin.Fd())
	if oldState, err := term.MakeRaw(fd); err == nil {
		defer term.Restore(fd, oldState)
		go func() {
			var b [1]byte
			os.Stdin.Read(b[:])
			cancel()
		}()
	}
	fmt.Printf("playing %q, BPM %d, press any key to stop\r\n", song.Title, song.BPM)

	tracker.TrySend(broker.ToPlayer, any(tracker.StartPlayMsg{}))
	started := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-broker.ToModel:
			if a, ok := msg.Data.(tracker.Alert); ok {
				// alert messages carry no position
				fmt.Fprintf(os.Stderr, "%s: %s\r\n", a.Name, a.Message)
				continue
			}
			if msg.Playing {
				started = true
				fmt.Printf("row %02d loop %d\r", msg.Row, msg.Loops)
			} else if started {
				fmt.Printf("\r\nplayback finished, %d loops\r\n", msg.Loops)
				return nil
			}
		}
	}
}

func drainAlerts(broker *tracker.Broker) error {
	for {
		select {
		case msg := <-broker.ToModel:
			if a, ok := msg.Data.(tracker.Alert); ok {
				fmt.Fprintf(os.Stderr, "%s: %s\n", a.Name, a.Message)
			}
		default:
			return nil
		}
	}
}

func outputPath(input, directory, extension string) string {
	dir, name := filepath.Split(input)
	if directory != "" {
		dir = directory
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
	return filepath.Join(dir, name)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "gridtrack command line utility for playing and rendering song files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
