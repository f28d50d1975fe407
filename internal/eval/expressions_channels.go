package eval

import (
	"fmt"

	"github.com/uni-lang/uni/internal/ast"
	"github.com/uni-lang/uni/internal/channel"
	"github.com/uni-lang/uni/internal/value"
)

func asChan(v value.Value) (*channel.Chan, error) {
	ch, ok := v.(*channel.Chan)
	if !ok {
		return nil, fmt.Errorf("channel op: expected a channel, got %s", v.Kind())
	}
	return ch, nil
}

func (e *Evaluator) evalSend(node ast.Node, ctx Context) (value.Value, error) {
	chV, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(chV) {
		return chV, nil
	}
	ch, err := asChan(chV)
	if err != nil {
		return nil, err
	}
	v, err := e.Eval(node.Children[1], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(v) {
		return v, nil
	}
	isErr := v.Kind() == value.KindEffect
	if serr := ch.Send(v, isErr); serr != nil {
		return nil, fmt.Errorf("send: %w", serr)
	}
	return v, nil
}

func (e *Evaluator) evalSendStatus(node ast.Node, ctx Context) (value.Value, error) {
	chV, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(chV) {
		return chV, nil
	}
	ch, err := asChan(chV)
	if err != nil {
		return nil, err
	}
	v, err := e.Eval(node.Children[1], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(v) {
		return v, nil
	}
	isErr := v.Kind() == value.KindEffect
	return ch.SendStatus(v, isErr), nil
}

func (e *Evaluator) evalReceive(node ast.Node, ctx Context) (value.Value, error) {
	chV, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(chV) {
		return chV, nil
	}
	ch, err := asChan(chV)
	if err != nil {
		return nil, err
	}
	if ctx.Task != nil {
		ctx.Task.RecordStep(e.Cfg.TaskStepBudget, e.Log)
	}
	v, rerr := ch.Receive(e.Sched, cancelChanFor(ctx))
	if rerr != nil {
		return nil, fmt.Errorf("receive: %w", rerr)
	}
	return v, nil
}

func (e *Evaluator) evalReceiveStatus(node ast.Node, ctx Context) (value.Value, error) {
	chV, err := e.Eval(node.Children[0], ctx)
	if err != nil {
		return nil, err
	}
	if isControlSignal(chV) {
		return chV, nil
	}
	ch, err := asChan(chV)
	if err != nil {
		return nil, err
	}
	v, status := ch.TryReceive()
	return value.NewList(v, status), nil
}
