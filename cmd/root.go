/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/fembem/device"
	"github.com/notargets/fembem/utils"
)

var (
	cfgFile     string
	profileStop interface{ Stop() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fembem",
	Short: "Move finite element functions to and from layer potential node layouts",
	Long: `fembem reorders the nodes of finite element functions into the cell-major,
positively oriented layout a layer potential evaluator works on, runs an
operator there and moves the results back.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		l, err := utils.NewLogger(viper.GetBool("verbose"))
		if err != nil {
			return
		}
		utils.SetLogger(l)
		switch mode := viper.GetString("profile"); mode {
		case "":
		case "cpu":
			profileStop = profile.Start(profile.CPUProfile, profile.ProfilePath("."))
		case "mem":
			profileStop = profile.Start(profile.MemProfile, profile.ProfilePath("."))
		default:
			return fmt.Errorf("unknown profile mode %q, want cpu or mem", mode)
		}
		return
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profileStop != nil {
			profileStop.Stop()
			profileStop = nil
		}
		_ = utils.Log().Sync()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fembem.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("profile", "", "write a cpu or mem profile to the working directory")
	rootCmd.PersistentFlags().String("device", "host", "compute device: host or occa")
	for _, name := range []string{"verbose", "profile", "device"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".fembem" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".fembem")
	}

	viper.SetEnvPrefix("FEMBEM")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		utils.Log().Infow("using config file", "file", viper.ConfigFileUsed())
	}
}

// openQueue opens the device named by the --device flag or the config
func openQueue() (device.Queue, error) {
	return device.New(viper.GetString("device"))
}
