// Package provision makes a package's prebuilt native addon present and
// loadable at install time.
//
// # Flow
//
// A Provisioner runs one install invocation through a small state machine:
//
//  1. Skip when the .no-postinstall marker exists or index.node is
//     already installed.
//  2. Resolve the variant key for the running host.
//  3. Acquire the compressed artifact from binaries/ or, when a remote base
//     URL is configured, fetch it with bounded retry and backoff.
//  4. Verify it against binaries/SHA256SUMS and a detached OpenPGP
//     signature when those are available/configured.
//  5. Decompress into a temp file and rename it onto index.node.
//  6. Remove the bundled binaries/ directory. Cleanup failures are logged
//     and never fail the install.
//
// # Errors
//
// Failures are reported as *Error values carrying a Kind so callers can
// switch on the failure class rather than the message:
//
//	res, err := p.Run(ctx)
//	switch provision.KindOf(err) {
//	case provision.KindUnsupportedPlatform:
//	    // no prebuilt variant for this host
//	case provision.KindTransportError, provision.KindBadStatus:
//	    // network gave up after Config.MaxAttempts
//	}
//
// # Usage
//
//	p, err := provision.New(provision.Config{
//	    Root:          pkgDir,
//	    PackageName:   "@min-html/core",
//	    RemoteBaseURL: "https://cdn.example.com/min-html/v{version}/{name}",
//	})
//	if err != nil {
//	    return err
//	}
//	res, err := p.Run(ctx)
package provision
