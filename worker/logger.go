package worker

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "worker")
