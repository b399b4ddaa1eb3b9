// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zanicar/zksteg"
	"github.com/zanicar/zksteg/raster"
)

func embedCmd() *cobra.Command {
	var (
		dataFile, inputFile, outputFile, metaFile string
		key, encryptKey                           string
		compress                                  bool
		anchorX, anchorY                          uint16
		useAnchor                                 bool
	)

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed a data file inside a PNG carrier",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(dataFile)
			if err != nil {
				return fmt.Errorf("data file: %w", err)
			}

			if compress {
				if data, err = compressPayload(data); err != nil {
					return fmt.Errorf("compress: %w", err)
				}
			}
			if encryptKey != "" {
				if data, err = encryptPayload(data, []byte(encryptKey)); err != nil {
					return fmt.Errorf("encrypt: %w", err)
				}
			}

			carrier, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("input file: %w", err)
			}

			var meta []byte
			if metaFile != "" {
				if meta, err = os.ReadFile(metaFile); err != nil {
					return fmt.Errorf("meta file: %w", err)
				}
			}

			var anchor *zksteg.Anchor
			if useAnchor {
				anchor = &zksteg.Anchor{X: anchorX, Y: anchorY}
			}

			codec := zksteg.New()
			stego, descriptor, err := codec.Embed(carrier, data, []byte(key), anchor, meta)
			if err != nil {
				return fmt.Errorf("embed: %w", err)
			}

			if err := os.WriteFile(outputFile, stego, 0o644); err != nil {
				return fmt.Errorf("output file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "embedded %d payload bits at anchor (%d,%d)\n",
				descriptor.PayloadBits, descriptor.AnchorX, descriptor.AnchorY)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFile, "data", "", "path to the payload file")
	cmd.Flags().StringVar(&inputFile, "in", "", "path to the carrier PNG")
	cmd.Flags().StringVar(&outputFile, "out", "", "path to write the stego PNG")
	cmd.Flags().StringVar(&metaFile, "meta", "", "optional path to a public-metadata blob, carried verbatim")
	cmd.Flags().StringVar(&key, "key", "", "steganographic key (drives the chaos position generator)")
	cmd.Flags().StringVar(&encryptKey, "encrypt-key", "", "optional passphrase to AEAD-encrypt the payload before embedding")
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the payload before embedding")
	cmd.Flags().Uint16Var(&anchorX, "anchor-x", 0, "explicit anchor x (used only with --anchor)")
	cmd.Flags().Uint16Var(&anchorY, "anchor-y", 0, "explicit anchor y (used only with --anchor)")
	cmd.Flags().BoolVar(&useAnchor, "anchor", false, "use --anchor-x/--anchor-y instead of the feature-extracted anchor")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func extractCmd() *cobra.Command {
	var (
		inputFile, outputFile string
		key, decryptKey       string
		decompress            bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the data file hidden inside a stego PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			stego, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("input file: %w", err)
			}

			codec := zksteg.New()
			data, descriptor, err := codec.Extract(stego, []byte(key))
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}

			if decryptKey != "" {
				if data, err = decryptPayload(data, []byte(decryptKey)); err != nil {
					return fmt.Errorf("decrypt: %w", err)
				}
			}
			if decompress {
				if data, err = decompressPayload(data); err != nil {
					return fmt.Errorf("decompress: %w", err)
				}
			}

			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return fmt.Errorf("output file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "extracted %d payload bits, %d bytes of metadata\n",
				descriptor.PayloadBits, len(descriptor.Meta))
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFile, "in", "", "path to the stego PNG")
	cmd.Flags().StringVar(&outputFile, "out", "", "path to write the recovered payload")
	cmd.Flags().StringVar(&key, "key", "", "steganographic key used at embed time")
	cmd.Flags().StringVar(&decryptKey, "decrypt-key", "", "passphrase, if --encrypt-key was used at embed time")
	cmd.Flags().BoolVar(&decompress, "decompress", false, "zstd-decompress the payload after extraction")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func capacityCmd() *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Report the maximum payload size (in bits and bytes) a carrier PNG can hold",
		RunE: func(cmd *cobra.Command, args []string) error {
			carrier, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("input file: %w", err)
			}
			img, err := raster.Decode(carrier)
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			bits := zksteg.CapacityBits(img)
			fmt.Fprintf(cmd.OutOrStdout(), "%d bits (%d bytes)\n", bits, bits/8)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFile, "in", "", "path to the carrier PNG")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
