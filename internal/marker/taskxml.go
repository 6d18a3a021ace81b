package marker

import (
	"encoding/xml"
	"fmt"
	"time"
)

// Task Scheduler 1.2 task definition, rendered to XML and registered via
// schtasks. Generating the full definition (instead of schtasks flags)
// is the only way to control the battery and instance policies.
type taskDefinition struct {
	XMLName          xml.Name         `xml:"Task"`
	Version          string           `xml:"version,attr"`
	Xmlns            string           `xml:"xmlns,attr"`
	RegistrationInfo registrationInfo `xml:"RegistrationInfo"`
	Triggers         taskTriggers     `xml:"Triggers"`
	Principals       taskPrincipals   `xml:"Principals"`
	Settings         taskSettings     `xml:"Settings"`
	Actions          taskActions      `xml:"Actions"`
}

type registrationInfo struct {
	Description string `xml:"Description"`
}

type taskTriggers struct {
	TimeTrigger timeTrigger `xml:"TimeTrigger"`
}

type timeTrigger struct {
	StartBoundary string `xml:"StartBoundary"`
	EndBoundary   string `xml:"EndBoundary"`
	Enabled       bool   `xml:"Enabled"`
}

type taskPrincipals struct {
	Principal taskPrincipal `xml:"Principal"`
}

type taskPrincipal struct {
	ID       string `xml:"id,attr"`
	UserID   string `xml:"UserId"`
	RunLevel string `xml:"RunLevel"`
}

type taskSettings struct {
	MultipleInstancesPolicy    string `xml:"MultipleInstancesPolicy"`
	DisallowStartIfOnBatteries bool   `xml:"DisallowStartIfOnBatteries"`
	StopIfGoingOnBatteries     bool   `xml:"StopIfGoingOnBatteries"`
	AllowHardTerminate         bool   `xml:"AllowHardTerminate"`
	StartWhenAvailable         bool   `xml:"StartWhenAvailable"`
	Enabled                    bool   `xml:"Enabled"`
	DeleteExpiredTaskAfter     string `xml:"DeleteExpiredTaskAfter"`
	ExecutionTimeLimit         string `xml:"ExecutionTimeLimit"`
}

type taskActions struct {
	Context string   `xml:"Context,attr"`
	Exec    taskExec `xml:"Exec"`
}

type taskExec struct {
	Command   string `xml:"Command"`
	Arguments string `xml:"Arguments"`
}

// localSystemSID is the LocalSystem service identity; the cleanup must run
// whether or not the interactive user is still logged in.
const localSystemSID = "S-1-5-18"

// taskTimeLayout is the Task Scheduler local-time boundary format.
const taskTimeLayout = "2006-01-02T15:04:05"

// BuildCleanupTaskXML renders the one-shot cleanup task definition: at
// fireAt, delete the marker file, running as LocalSystem, regardless of
// power source, never with concurrent instances, and self-deleting once
// expired.
func BuildCleanupTaskXML(markerPath string, fireAt time.Time) ([]byte, error) {
	def := taskDefinition{
		Version: "1.2",
		Xmlns:   "http://schemas.microsoft.com/windows/2004/02/mit/task",
		RegistrationInfo: registrationInfo{
			Description: "Removes the upgrade-assistant detection marker after the fleet server has observed it.",
		},
		Triggers: taskTriggers{
			TimeTrigger: timeTrigger{
				StartBoundary: fireAt.Format(taskTimeLayout),
				EndBoundary:   fireAt.Add(time.Hour).Format(taskTimeLayout),
				Enabled:       true,
			},
		},
		Principals: taskPrincipals{
			Principal: taskPrincipal{
				ID:       "Author",
				UserID:   localSystemSID,
				RunLevel: "HighestAvailable",
			},
		},
		Settings: taskSettings{
			MultipleInstancesPolicy:    "IgnoreNew",
			DisallowStartIfOnBatteries: false,
			StopIfGoingOnBatteries:     false,
			AllowHardTerminate:         true,
			StartWhenAvailable:         true,
			Enabled:                    true,
			DeleteExpiredTaskAfter:     "PT0S",
			ExecutionTimeLimit:         "PT5M",
		},
		Actions: taskActions{
			Context: "Author",
			Exec: taskExec{
				Command:   "cmd.exe",
				Arguments: fmt.Sprintf(`/c del /f /q "%s"`, markerPath),
			},
		},
	}

	body, err := xml.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal task definition: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
