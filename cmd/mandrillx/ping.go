package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/asyncx"
	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"github.com/spf13/cobra"
)

var (
	pingInfo    bool
	pingTimeout time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the API key against Mandrill",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := NewContainer(cfg)
		defer c.Cleanup()

		client, err := c.Mandrill()
		if err != nil {
			return err
		}

		pong, err := asyncx.WithTimeout(ctx, pingTimeout, client.Ping)
		if err != nil {
			return err
		}
		fmt.Println(pong)

		if !pingInfo {
			return nil
		}
		return printAccount(ctx, client)
	},
}

// printAccount prints account details fetched by fetchAccount.
func printAccount(ctx context.Context, client *mandrillx.Client) error {
	account, err := fetchAccount(ctx, client)
	if err != nil {
		return err
	}
	printJSON(account)
	return nil
}

// fetchAccount runs the account calls concurrently over one session. The
// session is opened up front so the calls only read it, and every call is
// awaited before it is closed.
func fetchAccount(ctx context.Context, client *mandrillx.Client) (map[string]any, error) {
	if client.Open() {
		defer client.Close()
	}

	info := asyncx.Go(ctx, client.UserInfo)
	senders := asyncx.Go(ctx, client.Senders)
	tags := asyncx.Go(ctx, client.Tags)

	// The calls abort with ctx on their own; waiting past it keeps Close
	// from running under them.
	wait := context.WithoutCancel(ctx)
	u, infoErr := info.Await(wait)
	s, sendersErr := senders.Await(wait)
	t, tagsErr := tags.Await(wait)
	if err := errors.Join(infoErr, sendersErr, tagsErr); err != nil {
		return nil, err
	}

	return map[string]any{"user": u, "senders": s, "tags": t}, nil
}

func init() {
	pingCmd.Flags().BoolVar(&pingInfo, "info", false, "also print account info, senders and tags")
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 10*time.Second, "give up after this long")
}
