// Copyright (c) 2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"github.com/openthread/ot-rfbroker/logger"
)

type CliHandler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

type CliOptions struct {
	EchoInput bool
	Stdin     *os.File
	Stdout    *os.File
}

func DefaultCliOptions() *CliOptions {
	return &CliOptions{}
}

func (o *CliOptions) withDefaults() *CliOptions {
	opts := CliOptions{}
	if o != nil {
		opts = *o
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &opts
}

// Console runs the interactive readline loop of the broker. Only one console runs per process.
type Console struct {
	Started chan struct{}
	options *CliOptions
	rl      *readline.Instance
	closed  chan struct{}
}

func NewConsole() *Console {
	return &Console{
		Started: make(chan struct{}),
		closed:  make(chan struct{}),
	}
}

// OnStdout redraws the prompt after log output interleaved with the console.
func (c *Console) OnStdout() {
	if c.rl != nil {
		c.rl.Refresh()
	}
}

// Stop makes Run return and waits until it did. It may be called after Run already returned.
func (c *Console) Stop() {
	<-c.Started
	if c.options != nil {
		// readline blocks in its rune reader; an interrupt char followed by closing stdin releases it.
		_, _ = c.options.Stdin.WriteString("\003\n")
		_ = c.options.Stdin.Close()
	}
	logger.Tracef("waiting for console to stop ...")
	<-c.closed
}

func restoreTerminal(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !readline.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := readline.GetState(fd)
	if err != nil {
		return nil, err
	}
	return func() {
		_ = readline.Restore(fd, state)
	}, nil
}

// Run reads command lines and passes them to handler until stdin closes, the user interrupts on an
// empty line, or handler returns an error.
func (c *Console) Run(handler CliHandler, options *CliOptions) error {
	defer logger.Debugf("console exit.")
	defer close(c.closed)

	options = options.withDefaults()
	c.options = options

	for _, f := range []*os.File{options.Stdin, options.Stdout} {
		restore, err := restoreTerminal(f)
		if err != nil {
			close(c.Started)
			return err
		}
		defer restore()
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:            handler.GetPrompt(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             options.Stdin,
		Stdout:            options.Stdout,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			if r == readline.CharCtrlZ {
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		close(c.Started)
		return err
	}
	defer func() {
		_ = l.Close()
	}()
	c.rl = l
	close(c.Started)

	stdout := options.Stdout
	for {
		l.SetPrompt(handler.GetPrompt())
		line, err := l.Readline()

		if len(line) > 0 && line[0] == readline.CharInterrupt {
			return nil
		} else if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue // Ctrl-C while editing only drops the line.
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		if options.EchoInput {
			if _, err := stdout.WriteString(line + "\n"); err != nil {
				return err
			}
		}

		cmd := strings.TrimSpace(line)
		if len(cmd) == 0 {
			continue
		}

		err = handler.HandleCommand(cmd, l.Stdout())
		_ = stdout.Sync()
		if err != nil {
			return err
		}
	}
}
