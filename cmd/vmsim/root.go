package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/reporting"
	"github.com/sarchlab/vmsim/simulation"
	"github.com/sarchlab/vmsim/trace"
	"github.com/sarchlab/vmsim/tracing"
)

var (
	flagMaxFrames    int
	flagTotalFrames  int
	flagStrategy     string
	flagLog2PageSize uint64
	flagVerbose      bool
	flagFileVerbose  bool
	flagCSV          bool
	flagTraceCSV     string
	flagRecord       bool
	flagRecordPath   string
	flagMonitor      bool
	flagMonitorPort  int
	flagMonitorOpen  bool
)

// rootCmd runs one full replay of the given simulation file.
var rootCmd = &cobra.Command{
	Use:   "vmsim [flags] simulation-file",
	Short: "vmsim simulates demand paging over a recorded memory trace",
	Long: `vmsim replays a trace of per-process virtual-address accesses ` +
		`against a fixed pool of physical frames. Each access either hits ` +
		`a resident page or takes a page fault; once a process has used ` +
		`its whole frame quota, a victim page is evicted under the FIFO ` +
		`or LRU strategy. The run ends with a per-process and aggregate ` +
		`fault report.`,
	Args: cobra.ExactArgs(1),
	RunE: run,

	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func init() {
	loadEnvDefaults()

	rootCmd.Flags().IntVar(&flagMaxFrames, "max-frames",
		envInt("VMSIM_MAX_FRAMES", 10),
		"frame quota of each process")
	rootCmd.Flags().IntVar(&flagTotalFrames, "total-frames",
		envInt("VMSIM_TOTAL_FRAMES", 512),
		"number of physical frames in the simulated machine")
	rootCmd.Flags().StringVar(&flagStrategy, "strategy",
		envString("VMSIM_STRATEGY", "FIFO"),
		"replacement strategy, FIFO or LRU")
	rootCmd.Flags().Uint64Var(&flagLog2PageSize, "log2-page-size",
		uint64(envInt("VMSIM_LOG2_PAGE_SIZE", 10)),
		"page-size exponent used to split addresses")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"print every access as it is replayed")
	rootCmd.Flags().BoolVar(&flagFileVerbose, "file-verbose", false,
		"echo the loaded processes and addresses before the replay")
	rootCmd.Flags().BoolVar(&flagCSV, "csv", false,
		"print the final report as CSV")
	rootCmd.Flags().StringVar(&flagTraceCSV, "trace-csv", "",
		"write every access to the given CSV file")
	rootCmd.Flags().BoolVar(&flagRecord, "record", false,
		"record every access into a SQLite database")
	rootCmd.Flags().StringVar(&flagRecordPath, "record-path", "",
		"database path for --record, run ID based when empty")
	rootCmd.Flags().BoolVar(&flagMonitor, "monitor", false,
		"serve replay progress over HTTP")
	rootCmd.Flags().IntVar(&flagMonitorPort, "monitor-port", 0,
		"port for --monitor, random when 0")
	rootCmd.Flags().BoolVar(&flagMonitorOpen, "monitor-open", false,
		"open the monitor address in the browser")
}

func run(_ *cobra.Command, args []string) error {
	strategy, err := simulation.ParseStrategy(flagStrategy)
	if err != nil {
		return err
	}

	file, err := trace.Load(args[0])
	if err != nil {
		return err
	}

	builder := simulation.MakeBuilder().
		WithStrategy(strategy).
		WithTotalFrames(flagTotalFrames).
		WithMaxFramesPerProcess(flagMaxFrames).
		WithLog2PageSize(flagLog2PageSize)
	if flagVerbose {
		builder = builder.WithVerbose()
	}
	s := builder.Build()

	if err := s.Load(file); err != nil {
		return err
	}

	if flagFileVerbose {
		echoLoadedFile(s)
	}

	attachObservers(s)

	if err := s.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	if flagCSV {
		reporting.WriteCSV(os.Stdout, s.Stats())
	} else {
		reporting.WriteText(os.Stdout, s.Stats())
	}

	atexit.Exit(0)

	return nil
}

func attachObservers(s *simulation.Simulation) {
	if flagVerbose {
		s.AcceptHook(tracing.NewAccessLogger(os.Stdout))
	}

	if flagTraceCSV != "" {
		backend := tracing.NewCSVTraceBackend(flagTraceCSV)
		backend.Init()
		s.AcceptHook(backend)
	}

	if flagRecord {
		path := flagRecordPath
		if path == "" {
			path = "vmsim_" + s.ID()
		}
		recorder := datarecording.New(path)
		s.AcceptHook(tracing.NewDBTracer(recorder))
	}

	if flagMonitor {
		monitor := monitoring.NewMonitor()
		if flagMonitorPort > 0 {
			monitor.WithPortNumber(flagMonitorPort)
		}
		monitor.RegisterSimulation(s)
		monitor.StartServer()

		if flagMonitorOpen {
			monitor.OpenDashboard()
		}
	}
}

func echoLoadedFile(s *simulation.Simulation) {
	for _, proc := range s.Processes() {
		fmt.Printf("Process %d: Size: %d\n", proc.ID, proc.Size())
	}

	for _, addr := range s.Accesses() {
		fmt.Println(addr)
	}
}

// loadEnvDefaults pulls flag defaults from a .env file when one sits in the
// working directory. Real environment variables still win over the file.
func loadEnvDefaults() {
	_ = godotenv.Load()
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr,
			"ignoring %s=%q: not an integer\n", key, v)
		return fallback
	}

	return n
}
