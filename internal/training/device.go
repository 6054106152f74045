package training

import (
	"os"
	"os/exec"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// DetectDevice resolves the "auto" device preference to a concrete engine
// device string. Explicit preferences pass through untouched so the user
// can always pin a specific GPU.
func DetectDevice(preference string) string {
	pref := strings.TrimSpace(preference)
	if pref != "" && pref != "auto" {
		return pref
	}

	if cudaAvailable() {
		getLogger().Info("CUDA device detected, training on GPU", "device", "cuda")
		return "cuda"
	}

	getLogger().Info("no CUDA device detected, training on CPU",
		"cpu", cpuid.CPU.BrandName,
		"cores", cpuid.CPU.PhysicalCores,
		"avx2", cpuid.CPU.Supports(cpuid.AVX2))
	return "cpu"
}

// cudaAvailable probes for a usable NVIDIA GPU. nvidia-smi is the portable
// signal across Linux and Windows; the device node check covers stripped
// containers where the tool is absent.
func cudaAvailable() bool {
	if path, err := exec.LookPath("nvidia-smi"); err == nil {
		if err := exec.Command(path, "-L").Run(); err == nil {
			return true
		}
	}
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return true
	}
	return false
}
