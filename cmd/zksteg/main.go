// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

// Command zksteg is a demo CLI around the zksteg core library. It is not
// part of the core: the ZK proof system, message-format generation, and
// CLI wrapping are all named out-of-scope for the codec itself (spec §1).
// This binary exists purely so every programmatic-contract operation
// (Embed, Extract, CapacityBits) has a runnable entry point, the way the
// teacher's cmd/stegano did for Conceal/Reveal.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zanicar/zksteg/internal/zklog"
)

var (
	verbose bool
	cfgFile string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zksteg",
		Short: "Chaos-keyed LSB steganographic codec (demo CLI)",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zklog.SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger())

			if cfgFile != "" {
				viper.SetConfigFile(cfgFile)
				_ = viper.ReadInConfig() // demo-only overlay; absence is not an error
			}
			viper.SetEnvPrefix("zksteg")
			viper.AutomaticEnv()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional zksteg.yaml config overlay")

	root.AddCommand(embedCmd(), extractCmd(), capacityCmd())
	return root
}
