package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tklauser/apalis-tools/internal/config"
	"github.com/tklauser/apalis-tools/internal/configblock"
	"github.com/tklauser/apalis-tools/internal/disk"
)

var skipSpec string

var configblockCmd = &cobra.Command{
	Use:   "configblock [BLOCKDEV]",
	Short: "Read the Toradex config block",
	Long: `Read and decode the Toradex config block holding the module type, serial
number and Ethernet MAC address.

If BLOCKDEV is omitted, the default locations are searched: the last sector
of the first eMMC boot area partition (BSP >= 2.3), then the 'ARG'
partition offset on the user area (earlier releases).`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigBlock(args)
	},
}

func init() {
	configblockCmd.Flags().StringVarP(&skipSpec, "skip", "s", "",
		"partition offset as N[s|b] (N sectors or bytes, negative counts from the end)")
	rootCmd.AddCommand(configblockCmd)
}

// parseSkip parses an offset given in sectors (default, or with an 's'
// suffix) or bytes ('b' suffix).
func parseSkip(spec string, sectorSize int64) (int64, error) {
	unit := sectorSize
	num := spec
	switch spec[len(spec)-1] {
	case 'b':
		unit = 1
		num = spec[:len(spec)-1]
	case 's':
		num = spec[:len(spec)-1]
	}

	n, err := strconv.ParseInt(num, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", spec, err)
	}
	return n * unit, nil
}

func runConfigBlock(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var skip int64
	skipSet := skipSpec != ""
	if skipSet {
		if skip, err = parseSkip(skipSpec, cfg.ConfigBlock.SectorSize); err != nil {
			return err
		}
	}

	if len(args) > 0 {
		if !skipSet {
			skip = cfg.ConfigBlock.UserOffset
		}
		return readConfigBlock(args[0], skip)
	}

	// Default search: the boot area location first, then the user area.
	// Retrying the second location is policy here, never the decoder's.
	first, second := cfg.ConfigBlock.BootOffset, cfg.ConfigBlock.UserOffset
	if skipSet {
		first, second = skip, skip
	}
	if err := readConfigBlock(cfg.ConfigBlock.BootDevice, first); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return readConfigBlock(cfg.ConfigBlock.UserDevice, second)
	}
	return nil
}

func readConfigBlock(path string, skip int64) error {
	dev, err := disk.Open(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	buf, pos, err := dev.ReadBlock(skip, configblock.BlockSize)
	if err != nil {
		return err
	}

	blk, err := configblock.Parse(buf)
	if err != nil {
		return fmt.Errorf("%s at 0x%08x: %w", path, pos, err)
	}

	fmt.Printf("Toradex config block found on %s at 0x%08x\n", path, pos)
	for _, id := range blk.UnknownTags {
		fmt.Fprintf(os.Stderr, "Warning: unknown tag id 0x%04x found in config block\n", id)
	}

	model := "unknown"
	var hw configblock.HardwareInfo
	if blk.HW != nil {
		hw = *blk.HW
		if name, ok := configblock.ModelName(hw.ProductID); ok {
			model = name
		}
	}
	fmt.Printf("Model:  Toradex %s %s\n", model, hw.Version())

	var serial uint32
	mac := "00:00:00:00:00:00"
	if blk.Eth != nil {
		serial = blk.Eth.Serial()
		mac = blk.Eth.String()
	}
	fmt.Printf("Serial: %08d\n", serial)
	fmt.Printf("MAC:    %s\n", mac)
	return nil
}
