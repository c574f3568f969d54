package nodes

import (
	"errors"
	"testing"

	"github.com/dukex/convoflow/pkg/models"
	"github.com/dukex/convoflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	data, err := Decode[models.DelayData](testutil.DelayNode("d1", 30))
	require.NoError(t, err)
	assert.Equal(t, 30, data.Seconds)

	question, err := Decode[models.AskQuestionData](testutil.AskQuestionNode("q1", "Name?", "name"))
	require.NoError(t, err)
	assert.Equal(t, "Name?", question.Question)
}

func TestDecode_PayloadMismatch(t *testing.T) {
	_, err := Decode[models.DelayData](testutil.SendMessageNode("m1", "hi"))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Equal(t, ErrorKindConfiguration, ErrorKind(err))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, ErrorKindConfiguration, ErrorKind(NewConfigurationError("n1", "no phone")))
	assert.Equal(t, ErrorKindTransport, ErrorKind(errors.New("gateway down")))
}
