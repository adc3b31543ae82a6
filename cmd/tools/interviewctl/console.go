package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	interviewService "github.com/zhouzirui/investor-interview/backend/internal/service/interview"
	"github.com/zhouzirui/investor-interview/backend/internal/service/session"
)

// console 在终端上逐轮进行面试
type console struct {
	engine  *interviewService.Engine
	store   session.Store
	slot    string
	timeout time.Duration
	in      io.Reader
	out     io.Writer
}

func (c *console) run(ctx context.Context, resume bool) error {
	current, err := c.open(ctx, resume)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(c.in)
	for !current.Complete {
		fmt.Fprint(c.out, "> ")
		line, err := readLine(scanner)
		if isEOF(err) {
			fmt.Fprintln(c.out)
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		turnCtx, cancel := c.turnContext(ctx)
		turn, err := c.engine.Advance(turnCtx, current, line)
		cancel()
		if err != nil {
			if !c.report(err) {
				return err
			}
			continue
		}

		current = turn.Session
		printResponse(c.out, turn.Response)
		if err := c.save(ctx, current); err != nil {
			return err
		}
	}
	return nil
}

func (c *console) open(ctx context.Context, resume bool) (interview.Session, error) {
	if resume && c.store != nil {
		saved, err := c.store.Load(ctx, c.slot)
		switch {
		case err == nil:
			fmt.Fprintf(c.out, "resuming %s at %s\n", saved.SessionID, saved.CurrentQuestion)
			if saved.Complete && saved.FinalResult != nil {
				printResponse(c.out, *saved.FinalResult)
				return saved, nil
			}
			question, _ := interview.Lookup(saved.CurrentQuestion)
			fmt.Fprintf(c.out, "[%s] %s\n", question.ID, question.Text)
			return saved, nil
		case errors.Is(err, session.ErrSessionNotFound):
			fmt.Fprintln(c.out, "no saved interview, starting a new one")
		default:
			return interview.Session{}, err
		}
	}

	turn := c.engine.Start()
	printResponse(c.out, turn.Response)
	return turn.Session, c.save(ctx, turn.Session)
}

// report prints a recoverable turn error. It returns false when the interview cannot go on.
func (c *console) report(err error) bool {
	var (
		invalid *interview.InvalidInputError
		failure *interview.InterpreterFailure
	)
	switch {
	case errors.As(err, &invalid):
		fmt.Fprintf(c.out, "! %s\n", invalid.Reason)
		return true
	case errors.As(err, &failure):
		fmt.Fprintln(c.out, "! the interviewer did not understand that, please answer again")
		return true
	default:
		return false
	}
}

func (c *console) save(ctx context.Context, s interview.Session) error {
	if c.store == nil {
		return nil
	}
	return c.store.Save(ctx, c.slot, s)
}

func (c *console) turnContext(parent context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.timeout)
}
