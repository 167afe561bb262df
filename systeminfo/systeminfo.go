package systeminfo

import (
	"fmt"
	"net"
	"os/user"
	"time"

	"clipsleuth/logger"

	"github.com/shirou/gopsutil/v4/host"
)

// SystemInfo captures host context recorded alongside a clipboard report.
type SystemInfo struct {
	Hostname          string          `json:"hostname"`
	OSVersion         string          `json:"os_version"`
	Platform          string          `json:"platform"`
	KernelVersion     string          `json:"kernel_version,omitempty"`
	BootTime          string          `json:"boot_time,omitempty"`
	Uptime            uint64          `json:"uptime_seconds,omitempty"`
	CurrentUser       string          `json:"current_user,omitempty"`
	NetworkInterfaces []InterfaceInfo `json:"network_interfaces,omitempty"`
}

type InterfaceInfo struct {
	Name      string   `json:"name"`
	MAC       string   `json:"mac"`
	Addresses []string `json:"addresses"`
}

// Gather collects host facts. Individual failures are logged and skipped so
// a report is still produced on locked-down hosts.
func Gather() (*SystemInfo, error) {
	sysInfo := &SystemInfo{}

	if err := gatherHost(sysInfo); err != nil {
		logger.Warnf("Failed to gather host details: %v", err)
	}

	if err := gatherCurrentUser(sysInfo); err != nil {
		logger.Warnf("Failed to gather current user: %v", err)
	}

	if err := gatherNetworkInterfaces(sysInfo); err != nil {
		logger.Warnf("Failed to gather network interfaces: %v", err)
	}

	return sysInfo, nil
}

func gatherHost(sysInfo *SystemInfo) error {
	info, err := host.Info()
	if err != nil {
		return fmt.Errorf("failed to get host info: %v", err)
	}
	sysInfo.Hostname = info.Hostname
	sysInfo.OSVersion = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
	sysInfo.Platform = info.OS
	sysInfo.KernelVersion = info.KernelVersion
	sysInfo.Uptime = info.Uptime
	if info.BootTime > 0 {
		sysInfo.BootTime = time.Unix(int64(info.BootTime), 0).UTC().Format(time.RFC3339)
	}
	return nil
}

func gatherCurrentUser(sysInfo *SystemInfo) error {
	u, err := user.Current()
	if err != nil {
		return fmt.Errorf("failed to get current user: %v", err)
	}
	sysInfo.CurrentUser = u.Username
	return nil
}

func gatherNetworkInterfaces(sysInfo *SystemInfo) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("failed to get network interfaces: %v", err)
	}
	for _, iface := range ifaces {
		info := InterfaceInfo{Name: iface.Name, MAC: iface.HardwareAddr.String()}
		addrs, err := iface.Addrs()
		if err == nil {
			for _, addr := range addrs {
				info.Addresses = append(info.Addresses, addr.String())
			}
		}
		sysInfo.NetworkInterfaces = append(sysInfo.NetworkInterfaces, info)
	}
	return nil
}
