package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/williamokano/objstore/pkg/config"
	"github.com/williamokano/objstore/pkg/storage"
)

const (
	defaultPort = "22"
	dialTimeout = 30 * time.Second
)

// Backend stores objects as files under <endpoint path>/<container> on an
// SFTP server. key_id is the SSH user; secret is either a PEM private key
// or a password.
type Backend struct {
	addr               string
	user               string
	auth               []ssh.AuthMethod
	root               string
	knownHosts         string
	insecureSkipVerify bool
}

func init() {
	storage.RegisterBackend("ssh", func(cfg config.ClientConfig) (storage.Backend, error) {
		return New(cfg)
	})
}

// New creates a new SSH/SFTP backend from an sftp://host[:port]/path endpoint
func New(cfg config.ClientConfig) (*Backend, error) {
	u := cfg.EndpointURL()
	if u.Scheme != "sftp" && u.Scheme != "ssh" {
		return nil, &config.ConfigError{Field: "endpoint", Reason: "ssh backend requires an sftp://host/path endpoint"}
	}

	port := u.Port()
	if port == "" {
		port = defaultPort
	}

	base := u.Path
	if base == "" {
		base = "."
	}

	knownHosts := cfg.KnownHosts
	if knownHosts == "" && !cfg.InsecureSkipVerify {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, &config.ConfigError{Field: "known_hosts", Reason: "not set and home directory is unknown"}
		}
		knownHosts = filepath.Join(home, ".ssh", "known_hosts")
	}

	return &Backend{
		addr:               net.JoinHostPort(u.Hostname(), port),
		user:               cfg.KeyID,
		auth:               authMethods(cfg.Secret),
		root:               path.Join(base, cfg.Container),
		knownHosts:         knownHosts,
		insecureSkipVerify: cfg.InsecureSkipVerify,
	}, nil
}

func authMethods(secret string) []ssh.AuthMethod {
	if signer, err := ssh.ParsePrivateKey([]byte(secret)); err == nil {
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}
	}
	return []ssh.AuthMethod{ssh.Password(secret)}
}

func (b *Backend) Type() string { return "ssh" }

// Connect dials the server, opens an SFTP session and ensures the container
// directory exists
func (b *Backend) Connect(ctx context.Context) (storage.Conn, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if !b.insecureSkipVerify {
		cb, err := knownhosts.New(b.knownHosts)
		if err != nil {
			return nil, storage.Classify(storage.ErrConnFailed, fmt.Errorf("load known hosts: %w", err))
		}
		hostKeyCallback = cb
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	netConn, err := dialer.DialContext(ctx, "tcp", b.addr)
	if err != nil {
		return nil, classify(err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		netConn.SetDeadline(deadline)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, b.addr, &ssh.ClientConfig{
		User:            b.user,
		Auth:            b.auth,
		HostKeyCallback: hostKeyCallback,
	})
	if err != nil {
		netConn.Close()
		return nil, classifyHandshake(err)
	}
	netConn.SetDeadline(time.Time{})

	sshClient := ssh.NewClient(sshConn, chans, reqs)
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, storage.Classify(storage.ErrConnFailed, err)
	}

	if err := sftpClient.MkdirAll(b.root); err != nil {
		sftpClient.Close()
		sshClient.Close()
		return nil, classify(err)
	}

	return &conn{ssh: sshClient, sftp: sftpClient, root: b.root}, nil
}

type conn struct {
	ssh  *ssh.Client
	sftp *sftp.Client
	root string
}

func (c *conn) path(key string) (string, error) {
	if !filepath.IsLocal(key) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	return path.Join(c.root, key), nil
}

func (c *conn) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	remotePath, err := c.path(key)
	if err != nil {
		return err
	}

	if err := c.sftp.MkdirAll(path.Dir(remotePath)); err != nil {
		return classify(err)
	}

	f, err := c.sftp.Create(remotePath)
	if err != nil {
		return classify(err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return classify(err)
	}
	return classify(f.Close())
}

func (c *conn) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	remotePath, err := c.path(key)
	if err != nil {
		return 0, err
	}

	f, err := c.sftp.Open(remotePath)
	if err != nil {
		return 0, classify(err)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	return n, classify(err)
}

// Delete returns ErrNotFound for an absent key
func (c *conn) Delete(ctx context.Context, key string) error {
	remotePath, err := c.path(key)
	if err != nil {
		return err
	}
	return classify(c.sftp.Remove(remotePath))
}

func (c *conn) List(ctx context.Context) ([]string, error) {
	var keys []string
	walker := c.sftp.Walk(c.root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return nil, classify(err)
		}
		if err := ctx.Err(); err != nil {
			return nil, classify(err)
		}
		if !walker.Stat().Mode().IsRegular() {
			continue
		}
		keys = append(keys, strings.TrimPrefix(walker.Path(), c.root+"/"))
	}

	sort.Strings(keys)
	return keys, nil
}

func (c *conn) Head(ctx context.Context, key string) error {
	remotePath, err := c.path(key)
	if err != nil {
		return err
	}

	info, err := c.sftp.Stat(remotePath)
	if err != nil {
		return classify(err)
	}
	if !info.Mode().IsRegular() {
		return storage.Classify(storage.ErrNotFound, fmt.Errorf("%s is not a regular file", key))
	}
	return nil
}

// Close ends the SFTP session and the SSH connection
func (c *conn) Close() error {
	return errors.Join(c.sftp.Close(), c.ssh.Close())
}

func classifyHandshake(err error) error {
	var keyErr *knownhosts.KeyError
	switch {
	case errors.As(err, &keyErr):
		return storage.Classify(storage.ErrAuthFailed, fmt.Errorf("host key verification: %w", err))
	case strings.Contains(err.Error(), "unable to authenticate"):
		return storage.Classify(storage.ErrAuthFailed, err)
	}
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if cerr := storage.ContextError(err); cerr != nil {
		return cerr
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return storage.Classify(storage.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return storage.Classify(storage.ErrPermissionDenied, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return storage.Classify(storage.ErrTimeout, err)
		}
		return storage.Classify(storage.ErrConnFailed, err)
	}

	return fmt.Errorf("ssh: %w", err)
}
