// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// configcmd.go - config show/get/set/keys/path command.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fixonway/fixonway-tui/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(args)
	case "get":
		return configGet(args)
	case "set":
		return configSet(args)
	case "keys":
		for _, key := range config.AllKeys() {
			fmt.Println(key)
		}
		return nil
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return fmt.Errorf("unknown config subcommand: %s (try: show, get, set, keys, path)", args.Subcommand)
	}
}

func configShow(args Args) error {
	cfg := config.Global()

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	fmt.Println(TitleStyle.Render("Configuration"))
	for _, key := range config.AllKeys() {
		val, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("%s = %v\n", key, val)
	}
	return nil
}

func configGet(args Args) error {
	if args.ConfigKey == "" {
		return fmt.Errorf("usage: fixonway config get <key>")
	}
	val, err := config.Global().Get(args.ConfigKey)
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", val)
	return nil
}

func configSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return fmt.Errorf("usage: fixonway config set <key> <value>")
	}

	cfg := config.Global()
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if !args.Quiet {
		val, _ := cfg.Get(args.ConfigKey)
		fmt.Printf("%s %s = %v\n", SuccessStyle.Render("✓"), args.ConfigKey, val)
	}
	return nil
}
