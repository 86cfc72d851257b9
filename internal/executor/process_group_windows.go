//go:build windows

package executor

import "os/exec"

// Process groups are not used on Windows; only the direct child is killed.
func configureProcessGroup(cmd *exec.Cmd) {
	_ = cmd
}

func killProcessTree(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
