package grpccas

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/pqasn/cidutil"
	"xdao.co/pqasn/compliance"
	"xdao.co/pqasn/storage"
)

// Client implements storage.CAS against a remote Archive service. Every
// identifier and payload coming back is re-checked locally.
type Client struct {
	cc     *grpc.ClientConn
	client ArchiveClient

	// Timeout bounds each RPC when non-zero.
	Timeout time.Duration
}

var _ storage.CAS = (*Client)(nil)

type DialOptions struct {
	// MaxMsgBytes caps send and receive sizes when non-zero.
	MaxMsgBytes int
	// Timeout bounds each RPC when non-zero.
	Timeout time.Duration
}

// Dial creates a client for target. The connection is established lazily on
// the first RPC.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
			grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
		))
	}
	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc, opts.Timeout), nil
}

// NewClient wraps an existing connection; Close then closes cc.
func NewClient(cc *grpc.ClientConn, timeout time.Duration) *Client {
	return &Client{cc: cc, client: NewArchiveClient(cc), Timeout: timeout}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(ctx context.Context, message []byte) (cid.Cid, error) {
	want, err := cidutil.Sum(message)
	if err != nil {
		return cid.Undef, err
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(message))
	if err != nil {
		return cid.Undef, fromStatus(err)
	}
	id, err := cidutil.Parse(reply.GetValue())
	if err != nil {
		return cid.Undef, storage.ErrInvalidCID
	}
	if !id.Equals(want) {
		// A canonicalizing server may store a converted form of BER input.
		if _, canonical, cerr := cidutil.ForMessage(message, compliance.Permissive); cerr == nil && id.Equals(canonical) {
			return id, nil
		}
		return cid.Undef, storage.ErrCIDMismatch
	}
	return id, nil
}

func (c *Client) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, fromStatus(err)
	}
	b := reply.GetValue()
	if !cidutil.Matches(id, b) {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *Client) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false, fromStatus(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
