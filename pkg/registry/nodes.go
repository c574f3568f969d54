package registry

import (
	"github.com/dukex/convoflow/pkg/nodes/askquestion"
	"github.com/dukex/convoflow/pkg/nodes/assigntohuman"
	"github.com/dukex/convoflow/pkg/nodes/condition"
	"github.com/dukex/convoflow/pkg/nodes/delay"
	"github.com/dukex/convoflow/pkg/nodes/sendmessage"
	"github.com/dukex/convoflow/pkg/nodes/sendtemplate"
	"github.com/dukex/convoflow/pkg/protocol"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes(deps protocol.Dependencies) {
	r.RegisterNode(sendmessage.NewSendMessageNodeFactory(deps))
	r.RegisterNode(askquestion.NewAskQuestionNodeFactory(deps))
	r.RegisterNode(delay.NewDelayNodeFactory())
	r.RegisterNode(sendtemplate.NewSendTemplateNodeFactory(deps))
	r.RegisterNode(assigntohuman.NewAssignToHumanNodeFactory(deps))
	r.RegisterNode(condition.NewConditionNodeFactory())
}
