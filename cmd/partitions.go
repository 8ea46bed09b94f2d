package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tklauser/apalis-tools/internal/config"
	"github.com/tklauser/apalis-tools/internal/disk"
	"github.com/tklauser/apalis-tools/internal/gpt"
	"github.com/tklauser/apalis-tools/internal/tegra"
)

var partitionsCmd = &cobra.Command{
	Use:   "partitions [BOOTDEV [GPTDEV]]",
	Short: "List Tegra and GPT partition information",
	Long: `Read the proprietary NVIDIA partition table from the eMMC boot area and,
if the table announces one, the GPT from the last sectors of the user area
(as flashed by the Toradex Apalis image version 2.1).

Without arguments the devices from the configuration are used.`,
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPartitions(args)
	},
}

func init() {
	rootCmd.AddCommand(partitionsCmd)
}

func runPartitions(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	bootDev, gptDev := cfg.BootDevice, cfg.GPTDevice
	if len(args) > 0 {
		bootDev = args[0]
	}
	if len(args) > 1 {
		gptDev = args[1]
	}

	fmt.Printf("Using boot device %s, GPT device %s\n", bootDev, gptDev)

	table, err := readPartitionTable(bootDev)
	if table != nil {
		fmt.Printf("nvtegra partition table (%d partitions, size=%d)\n",
			table.NumParts, table.TableSize)
		for i, r := range table.Records() {
			printTegraRecord(i, r)
		}
	}
	if err != nil {
		return err
	}

	if _, _, ok := table.GPT(); !ok {
		fmt.Println("No GPT found or no block device file specified")
		return nil
	}

	return listGPT(gptDev)
}

// readPartitionTable returns the decoded table together with any decode
// error; on a validation failure the records visited so far are still
// reported by the caller.
func readPartitionTable(path string) (*tegra.Table, error) {
	dev, err := disk.Open(path)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	buf, _, err := dev.ReadBlock(0, tegra.TableSize)
	if err != nil {
		return nil, err
	}
	return tegra.Parse(buf)
}

func listGPT(path string) error {
	dev, err := disk.Open(path)
	if err != nil {
		return err
	}
	defer dev.Close()

	t, err := gpt.ReadTable(dev)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Printf("\nGPT header dump:\n%s", hex.Dump(t.RawHeader()))
	}

	tableBytes := uint64(t.Header.NumEntries) * uint64(t.Header.EntrySize)
	fmt.Printf("\nGUID partition table (%d partitions, size=%d, sector 0x%x, offset 0x%x)\n",
		t.Header.NumEntries, tableBytes, t.Header.EntriesLBA, t.TableOffset)

	for i, e := range t.Entries {
		if verbose {
			fmt.Printf("\nGPT entry %d dump:\n%s", i, hex.Dump(t.RawEntry(i)))
		}
		printGPTEntry(i, e, t.SectorSize)
	}
	return nil
}

func printTegraRecord(n int, r tegra.Record) {
	fmt.Printf("  #%02d id=%02d [%-3s] policy=%d fs=%d virt=0x%08x+0x%08x sectors=0x%08x-0x%08x type=%d\n",
		n, r.ID, r.DisplayName(), r.AllocationPolicy, r.FilesystemType,
		r.VirtualStart, r.VirtualSize, r.StartSector, r.EndSector, r.Type)
}

func printGPTEntry(n int, e gpt.Entry, sectorSize uint32) {
	fmt.Printf("  #%02d name=%s type=%s uuid=%s attr=0x%x start=0x%x size=%d (%s)\n",
		n, e.Name, e.Type, e.Unique, e.Attributes, e.FirstLBA, e.Blocks(),
		humanize.IBytes(e.Blocks()*uint64(sectorSize)))
}
