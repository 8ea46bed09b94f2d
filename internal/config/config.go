// Package config loads tool configuration: which devices to probe and
// where the config block lives on them. Everything has a default matching
// the flash layout of the Apalis BSP images, so a config file is optional.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ConfigBlock describes where to look for the Toradex config block. The
// boot area location is tried first (BSP >= 2.3 stores the block in the
// last sector of the first eMMC boot partition), then the user area
// location used by earlier releases.
type ConfigBlock struct {
	BootDevice string `mapstructure:"boot_device"`
	BootOffset int64  `mapstructure:"boot_offset"`
	UserDevice string `mapstructure:"user_device"`
	UserOffset int64  `mapstructure:"user_offset"`
	SectorSize int64  `mapstructure:"sector_size"`
}

// Config holds the tool configuration.
type Config struct {
	// BootDevice carries the proprietary partition table.
	BootDevice string `mapstructure:"boot_device"`
	// GPTDevice is the flash user area holding the GPT.
	GPTDevice string `mapstructure:"gpt_device"`

	ConfigBlock ConfigBlock `mapstructure:"config_block"`
}

const argPartitionOffset = 0x00000c00 // 'ARG' partition, in 4096-byte sectors

// Load reads the optional apalis-tools.yaml config file and applies
// defaults. Values can also be overridden through APALIS_* environment
// variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("apalis-tools")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/apalis-tools")
	v.AddConfigPath("/etc/apalis-tools")

	v.SetDefault("boot_device", "/dev/mmcblk0boot1")
	v.SetDefault("gpt_device", "/dev/mmcblk0")
	v.SetDefault("config_block.boot_device", "/dev/mmcblk0boot0")
	v.SetDefault("config_block.boot_offset", -512)
	v.SetDefault("config_block.user_device", "/dev/mmcblk0")
	v.SetDefault("config_block.user_offset", argPartitionOffset*4096)
	v.SetDefault("config_block.sector_size", 4096)

	v.SetEnvPrefix("APALIS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
