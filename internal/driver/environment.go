package driver

import (
	"os"
	"strings"

	"github.com/aerickson/test-kitchen/internal/config"
	"github.com/aerickson/test-kitchen/internal/probe"
)

// hostMachineToken is the placeholder users write into proxy URLs to mean
// "the machine running this driver". It lets one shared configuration work
// from the remote instance's point of view.
const hostMachineToken = "HOST_MACHINE"

// localHostname is swapped out in tests.
var localHostname = os.Hostname

// proxyView is the resolved, per-call view of the proxy configuration.
// Resolution never touches the configuration itself, so retries and
// concurrent phases each substitute from the pristine URLs.
type proxyView struct {
	httpProxy  string
	httpsProxy string
}

// resolveProxies substitutes the host-machine token in the configured proxy
// URLs with the local hostname. If the hostname cannot be determined the
// URLs pass through untouched.
func resolveProxies(cfg *config.Config) proxyView {
	view := proxyView{
		httpProxy:  cfg.HTTPProxy,
		httpsProxy: cfg.HTTPSProxy,
	}

	hostname, err := localHostname()
	if err != nil || hostname == "" {
		return view
	}

	view.httpProxy = strings.ReplaceAll(view.httpProxy, hostMachineToken, hostname)
	view.httpsProxy = strings.ReplaceAll(view.httpsProxy, hostMachineToken, hostname)
	return view
}

// wrapCommand prefixes a remote command with exported environment
// variables: working proxies and the PATH extension. When no assignment
// applies the command is returned unchanged.
func (d *Driver) wrapCommand(command string) string {
	if command == "" {
		return command
	}

	var assignments []string

	if d.cfg.ProxiesConfigured() {
		view := resolveProxies(d.cfg)

		httpWorking, httpsWorking := true, true
		if d.cfg.ProxyHealthChecking {
			if view.httpProxy != "" {
				httpWorking = d.prober.Probe(view.httpProxy, probe.DefaultHTTPTarget)
				d.log.Info("proxy health check", "proxy", view.httpProxy, "working", httpWorking)
			}
			if view.httpsProxy != "" {
				httpsWorking = d.prober.Probe(view.httpsProxy, probe.DefaultHTTPSTarget)
				d.log.Info("proxy health check", "proxy", view.httpsProxy, "working", httpsWorking)
			}
		}

		// A proxy that fails its probe is dropped from the environment
		// rather than failing the phase; the run proceeds without it.
		if view.httpProxy != "" && httpWorking {
			assignments = append(assignments, "http_proxy="+view.httpProxy)
		}
		if view.httpsProxy != "" && httpsWorking {
			assignments = append(assignments, "https_proxy="+view.httpsProxy)
		}
	}

	if dirs := d.cfg.PathDirs(); len(dirs) > 0 {
		assignments = append(assignments, "PATH=$PATH:"+strings.Join(dirs, ":"))
	}

	if len(assignments) == 0 {
		return command
	}
	return "env " + strings.Join(assignments, " ") + " " + command
}
