// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat tracks conversation state for the asiafeeds front-end.
//
// A Session holds the append-only history of Turns, enforces that at
// most one turn is in flight, and resolves which model each submission
// runs on. Hosts drive it cooperatively: Submit starts a turn, then
// repeated calls to Advance each perform one blocking unit of work and
// return a RenderInstruction saying what changed.
//
// # Key Types
//
//   - Turn: one prompt/response exchange with its lifecycle status
//   - Session: history, in-flight guard, and the Advance state machine
//   - Selector: the model selection rule (thinking, requested, default)
//   - RenderInstruction: what a host should render after one step
//
// # Usage
//
//	session := chat.NewSession(client, chat.NewSelector("", ""))
//	if session.Submit("What is Go?") {
//	    for {
//	        inst := session.Advance(ctx)
//	        fmt.Print(inst.Delta)
//	        if inst.Kind == chat.RenderComplete || inst.Kind == chat.RenderError {
//	            break
//	        }
//	    }
//	}
//
// There is no cancellation primitive for a running generation; a stream
// ends by exhaustion, by the backend's done marker, or by a transport
// failure. ClearHistory is the one interruption: it wipes the history
// and orphans the in-flight turn.
package chat
