// Package host gathers facts about the machine running the Docker daemon.
//
// Each artifact is built from a chain of sources tried in order: the tools an
// operator would run by hand (uname, lscpu, free, df, ip), their macOS
// counterparts (sysctl, vm_stat, ifconfig, netstat), and finally gopsutil,
// which needs no external binaries. A missing tool never fails the phase;
// when every source of a section is unavailable the artifact is kept with
// an explanation and recorded as a warning.
//
// Artifacts:
//   - os_info.txt, cpu_info.txt, memory_info.txt, disk_info.txt, network_info.txt
//   - host_summary.json, a machine-readable snapshot from gopsutil
//   - runtime_units.txt, systemd state of the container runtime services
package host
