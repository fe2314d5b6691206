package utils

import "net"

// IsPrivateHost reports whether host is, or resolves to, a loopback, private
// or link-local address. Toolsets that fetch model-chosen URLs refuse these.
func IsPrivateHost(host string) bool {
	if host == "localhost" || host == "metadata.google.internal" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return isPrivateIP(ip)
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return false
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return true
		}
	}
	return false
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
