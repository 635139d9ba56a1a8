// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package bot

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// finishedBinding is the JS function the bot page calls when its
// participation naturally ends.
const finishedBinding = "onBotFinished"

// chromeSession is a browserSession backed by a dedicated headless Chrome
// process via chromedp.
type chromeSession struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
}

// newChromeLauncher returns a launcher that starts an isolated headless
// Chrome with fake media devices, so joining a meeting never prompts for
// microphone or camera permissions.
func newChromeLauncher() browserLauncher {
	return func(onFinished func()) (browserSession, error) {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.Flag("use-fake-ui-for-media-stream", true),
			chromedp.Flag("use-fake-device-for-media-stream", true),
		)

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
		browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

		// Register the completion binding before any navigation so the page
		// can call it as soon as it loads.
		if err := chromedp.Run(browserCtx, runtime.AddBinding(finishedBinding)); err != nil {
			cancelCtx()
			cancelAlloc()
			return nil, err
		}

		chromedp.ListenTarget(browserCtx, func(ev any) {
			if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == finishedBinding {
				// The listener runs on the browser's event goroutine; the
				// callback tears the session down, so it must not block it.
				go onFinished()
			}
		})

		return &chromeSession{
			ctx:         browserCtx,
			cancelCtx:   cancelCtx,
			cancelAlloc: cancelAlloc,
		}, nil
	}
}

// Navigate loads the join page and waits for the document to be ready.
func (s *chromeSession) Navigate(joinURL string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	return chromedp.Run(navCtx,
		chromedp.Navigate(joinURL),
		chromedp.WaitReady("body"),
	)
}

// Close releases the browser context and its allocator.
func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.cancelCtx()
		s.cancelAlloc()
	})
	return nil
}
