package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clipworks/chorusclip/internal/analyze"
	"github.com/clipworks/chorusclip/internal/config"
	"github.com/clipworks/chorusclip/internal/effect"
	"github.com/clipworks/chorusclip/internal/fontkit"
	"github.com/clipworks/chorusclip/internal/logging"
	"github.com/clipworks/chorusclip/internal/pipeline"
	"github.com/clipworks/chorusclip/internal/probe"
	"github.com/clipworks/chorusclip/pkg/highlighter"
)

var (
	cfgPath string
	cfg     *config.Config

	rootCmd = &cobra.Command{
		Use:   "chorusclip",
		Short: "Create branded highlight clips from YouTube music videos",
		Long: `chorusclip searches YouTube for a song, downloads the best match, locates
the chorus, and renders a short branded clip with dimmed video, title text,
and synced lyrics.

Examples:
  # Create a clip for a song, using the configured trim window
  chorusclip create --title "Song Name" --author "Artist"

  # Let the model place the trim window on the chorus
  chorusclip create --title "Song Name" --author "Artist" --chorus

  # Apply trim and overlay effects to a local file
  chorusclip apply -i input.mp4 --start 25 --duration 20 --text "Song Name"`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(cfgPath); err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				cfg.Verbose = true
			}
			return logging.Init(cfg.Verbose, cfg.LogFile)
		},
	}

	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Search, download, and render a highlight clip",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyStringFlag(cmd, "title", &cfg.Title)
			applyStringFlag(cmd, "author", &cfg.Author)
			applyStringFlag(cmd, "language", &cfg.Language)
			applyStringFlag(cmd, "font", &cfg.FontFamily)
			applyStringFlag(cmd, "output", &cfg.OutputDir)
			applyFloatFlag(cmd, "start", &cfg.TrimStart)
			applyFloatFlag(cmd, "duration", &cfg.TrimDuration)
			if cmd.Flags().Changed("chorus") {
				cfg.Chorus, _ = cmd.Flags().GetBool("chorus")
			}

			if cfg.Title == "" || cfg.Author == "" {
				return fmt.Errorf("title and author are required")
			}

			h, err := highlighter.New(cfg, logging.WithComponent("highlighter"))
			if err != nil {
				return err
			}
			outPath, err := h.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(outPath)
			return nil
		},
	}

	applyCmd = &cobra.Command{
		Use:   "apply",
		Short: "Apply trim and overlay effects to a local video file",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, _ := cmd.Flags().GetString("input")
			if inputPath == "" {
				return fmt.Errorf("input path is required")
			}

			start, _ := cmd.Flags().GetFloat64("start")
			duration, _ := cmd.Flags().GetFloat64("duration")
			blur, _ := cmd.Flags().GetFloat64("blur")
			dim, _ := cmd.Flags().GetFloat64("dim")
			text, _ := cmd.Flags().GetString("text")
			textSize, _ := cmd.Flags().GetInt("text-size")

			var effects []effect.Effect
			if cmd.Flags().Changed("start") || cmd.Flags().Changed("duration") {
				effects = append(effects, effect.Trim{
					Segment: effect.Segment{Start: start, End: start + duration},
				})
			}
			if blur > 0 {
				effects = append(effects, effect.Blur{Radius: blur})
			}
			if dim > 0 {
				effects = append(effects, effect.FillOverlay{Color: "black", Opacity: dim})
			}
			if text != "" {
				zero := 0.0
				effects = append(effects, effect.TextOverlay{
					Metrics: fontkit.NewResolver(cfg.FontFamily),
					Entries: []effect.TextProperties{{
						Text:      text,
						Placement: effect.AtAlign(effect.Top, effect.Center),
						FontSize:  textSize,
						Color:     "white",
						StartTime: &zero,
						Duration:  duration,
					}},
				})
			}

			return pipeline.New(inputPath, logging.WithComponent("pipeline")).Apply(effects)
		},
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "Print per-second audio features for a local video file",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, _ := cmd.Flags().GetString("input")
			if inputPath == "" {
				return fmt.Errorf("input path is required")
			}

			media, err := probe.Probe(inputPath)
			if err != nil {
				return err
			}
			fmt.Printf("%dx%d %s/%s %.1fs\n",
				media.Width, media.Height, media.VideoCodec, media.AudioCodec, media.Duration)

			features, err := analyze.ExtractFeatures(inputPath)
			if err != nil {
				return err
			}
			for _, f := range features {
				fmt.Printf("%4ds  rms=%.4f  zcr=%.4f  peak=%.4f\n", f.Second, f.RMS, f.ZCR, f.Peak)
			}
			return nil
		},
	}
)

func applyStringFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func applyFloatFlag(cmd *cobra.Command, name string, dst *float64) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetFloat64(name)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	createCmd.Flags().StringP("title", "t", "", "Song title")
	createCmd.Flags().StringP("author", "a", "", "Song artist")
	createCmd.Flags().StringP("language", "l", "", "Subtitle language code")
	createCmd.Flags().String("font", "", "Preferred font family for overlays")
	createCmd.Flags().StringP("output", "o", "", "Output directory")
	createCmd.Flags().Float64("start", 0, "Trim start in seconds")
	createCmd.Flags().Float64("duration", 0, "Trim duration in seconds")
	createCmd.Flags().Bool("chorus", false, "Detect the chorus and trim to it")

	applyCmd.Flags().StringP("input", "i", "", "Input video file")
	applyCmd.Flags().Float64("start", 0, "Trim start in seconds")
	applyCmd.Flags().Float64("duration", 20, "Trim duration in seconds")
	applyCmd.Flags().Float64("blur", 0, "Gaussian blur radius")
	applyCmd.Flags().Float64("dim", 0, "Dim overlay opacity (0-1)")
	applyCmd.Flags().String("text", "", "Overlay text")
	applyCmd.Flags().Int("text-size", 48, "Overlay text font size")
	applyCmd.MarkFlagRequired("input")

	analyzeCmd.Flags().StringP("input", "i", "", "Input video file")
	analyzeCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
