// cmd/boardtest/main.go
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/config"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

// ---------- Configuration ----------

const (
	defaultCycles  = 1
	defaultTimeout = 100 * time.Millisecond

	// Sequencing timing
	dwellUp   = 20 * time.Millisecond
	dwellDown = 20 * time.Millisecond

	readLen = 16
)

// ---------- Checks ----------

type result struct {
	pass, fail int
}

func (r *result) check(name string, err error) bool {
	if err != nil {
		r.fail++
		fmt.Printf("  FAIL %-28s %v\n", name, err)
		return false
	}
	r.pass++
	fmt.Printf("  ok   %s\n", name)
	return true
}

func checkSensor(b *hal.Board, id types.SensorID, timeout time.Duration, r *result) {
	fmt.Printf("[sensor %d]\n", id)
	if !r.check("power on", b.PowerOn(id)) {
		return
	}
	time.Sleep(dwellUp)

	// The sensor only raises data-ready once the processing library starts
	// a measurement; a timeout here is reported, not failed.
	seen, err := b.WaitForInterrupt(id, timeout)
	if r.check("wait for interrupt", err) {
		fmt.Printf("       interrupt seen: %v\n", seen)
	}

	buf := make([]byte, readLen)
	if r.check("spi transfer", b.Transfer(id, buf)) {
		fmt.Printf("       rx: %s\n", hex.EncodeToString(buf))
	}
	if st, err := b.InterruptStats(id); err == nil {
		fmt.Printf("       irq signals=%d drops=%d drained=%d\n", st.Signals, st.Drops, st.Drained)
	}

	r.check("power off", b.PowerOff(id))
	time.Sleep(dwellDown)
}

func run(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cycles, _ := cmd.Flags().GetInt("cycles")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	printCfg, _ := cmd.Flags().GetBool("print-config")

	cfg, err := config.LoadFlags(path, cmd.Flags())
	if err != nil {
		return err
	}
	if printCfg {
		return config.Dump(os.Stdout, cfg)
	}

	deps := hal.NewDeps(cfg, os.Stderr)
	defer deps.Log.Close()

	b, err := hal.New(cfg, deps)
	if err != nil {
		return err
	}
	if err := b.DriverInit(); err != nil {
		return fmt.Errorf("driver init: %w", err)
	}
	defer b.Deinit()

	h, err := b.Build()
	if err != nil {
		return err
	}
	fmt.Printf("[boardtest] %s: %d sensor(s), ref %.0f Hz, max spi transfer %d\n",
		b.Name(), h.Properties.SensorCount, h.SensorDevice.GetReferenceFrequency(), h.Properties.MaxSPITransferSize)

	var r result
	for c := 1; cycles == 0 || c <= cycles; c++ {
		fmt.Printf("[boardtest] cycle %d\n", c)
		for id := types.SensorID(1); int(id) <= b.SensorCount(); id++ {
			checkSensor(b, id, timeout, &r)
		}
		fmt.Printf("[boardtest] states %v\n", b.SensorStates())
	}

	fmt.Printf("[boardtest] %d passed, %d failed\n", r.pass, r.fail)
	if r.fail > 0 {
		return fmt.Errorf("%d check(s) failed", r.fail)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "boardtest",
	Short: "bring-up self test for a radar sensor board",
	Long: `boardtest powers each sensor on the configured board, waits for its
data-ready interrupt, clocks one SPI transfer and powers it off again.
Configuration is read from --config, $RADARHAL_CONFIG, ./radarhal.yaml,
$HOME/.config/radarhal/radarhal.yaml or /etc/radarhal/radarhal.yaml.`,
	Example:      `  boardtest --board xc111 --cycles 3 --log-level debug`,
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	rootCmd.Flags().String("config", "", "configuration file path")
	rootCmd.Flags().String(config.FlagBoard, config.DefaultBoard, "board descriptor name")
	rootCmd.Flags().String(config.FlagLogLevel, "info", "error|warning|info|verbose|debug|diagnostics")
	rootCmd.Flags().String(config.FlagLogFile, "", "also log to this rotating file")
	rootCmd.Flags().Int("cycles", defaultCycles, "power cycles to run, 0 = forever")
	rootCmd.Flags().Duration("timeout", defaultTimeout, "interrupt wait per sensor")
	rootCmd.Flags().Bool("print-config", false, "print the resolved configuration and exit")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
