// Package trace loads simulation input files: the simulation file that lists
// process images and the virtual-address trace, and the process image files
// that define each process's page layout.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sarchlab/vmsim/vm"
)

// An Access is one raw trace entry. The address stays a hex string here; the
// simulation splits it into page and offset once the page-size exponent is
// known.
type Access struct {
	PID     vm.PID
	Address string
}

// A SimulationFile is the fully loaded input of one run: the page byte-sizes
// of every process, in image order, plus the ordered access trace.
type SimulationFile struct {
	PageSizes map[vm.PID][]uint64
	PIDs      []vm.PID
	Accesses  []Access
}

// Load reads a simulation file from disk. Process image paths inside the file
// are resolved relative to the simulation file's directory. Any unreadable
// file or malformed record aborts the load; nothing is replayed on error.
func Load(path string) (*SimulationFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open simulation file: %w", err)
	}
	defer file.Close()

	return Read(file, filepath.Dir(path))
}

// Read parses a simulation file from a reader. The file starts with the
// process count, followed by one `pid image-path` pair per process, followed
// by `pid hex-address` pairs until EOF. Image paths are resolved against dir.
func Read(r io.Reader, dir string) (*SimulationFile, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	numProcesses, err := nextInt(scanner, "process count")
	if err != nil {
		return nil, err
	}

	f := &SimulationFile{
		PageSizes: make(map[vm.PID][]uint64),
	}

	for i := 0; i < numProcesses; i++ {
		pid, err := nextPID(scanner)
		if err != nil {
			return nil, err
		}

		if !scanner.Scan() {
			return nil, fmt.Errorf("missing image path for PID %d", pid)
		}
		imagePath := scanner.Text()
		if dir != "" {
			imagePath = filepath.Join(dir, imagePath)
		}

		sizes, err := ReadProcessImage(imagePath)
		if err != nil {
			return nil, fmt.Errorf(
				"unable to read image for PID %d: %w", pid, err)
		}

		f.PageSizes[pid] = sizes
		f.PIDs = append(f.PIDs, pid)
	}

	for scanner.Scan() {
		pid, err := strconv.ParseUint(scanner.Text(), 10, 32)
		if err != nil {
			return nil, fmt.Errorf(
				"malformed PID %q in address trace: %w",
				scanner.Text(), err)
		}

		if !scanner.Scan() {
			return nil, fmt.Errorf(
				"trace ends with PID %d but no address", pid)
		}

		f.Accesses = append(f.Accesses, Access{
			PID:     vm.PID(pid),
			Address: scanner.Text(),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading simulation file: %w", err)
	}

	return f, nil
}

// ReadProcessImage reads a process image file and returns the byte size of
// each page, in page order. A page is one line of whitespace-separated hex
// byte values; only the byte count is retained, the content bytes are not
// modeled.
func ReadProcessImage(path string) ([]uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var sizes []uint64

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sizes = append(sizes, uint64(len(strings.Fields(line))))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return sizes, nil
}

func nextInt(scanner *bufio.Scanner, what string) (int, error) {
	if !scanner.Scan() {
		return 0, fmt.Errorf("missing %s", what)
	}

	n, err := strconv.Atoi(scanner.Text())
	if err != nil {
		return 0, fmt.Errorf("malformed %s %q: %w", what, scanner.Text(), err)
	}

	return n, nil
}

func nextPID(scanner *bufio.Scanner) (vm.PID, error) {
	if !scanner.Scan() {
		return 0, fmt.Errorf("missing PID in process list")
	}

	pid, err := strconv.ParseUint(scanner.Text(), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("malformed PID %q: %w", scanner.Text(), err)
	}

	return vm.PID(pid), nil
}
