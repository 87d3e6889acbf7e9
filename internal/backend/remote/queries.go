package remote

// GraphQL operations, scoped to the subset of a Linear-style schema Foundry
// actually drives: teams (for team-id resolution), projects, documents,
// issues, issue labels, and workflow states. Cycles, milestones,
// initiatives, attachments, and issue history have no Foundry mapping and
// are intentionally not queried here.

const queryTeams = `
query FindTeams($first: Int) {
  teams(first: $first) {
    nodes { id name key }
  }
}`

const queryProjects = `
query FindProjects($first: Int) {
  projects(first: $first) {
    nodes { id name description }
  }
}`

const mutationCreateProject = `
mutation CreateProject($input: ProjectCreateInput!) {
  projectCreate(input: $input) {
    project { id name description }
  }
}`

const mutationUpdateProject = `
mutation UpdateProject($id: String!, $input: ProjectUpdateInput!) {
  projectUpdate(id: $id, input: $input) {
    project { id name description }
  }
}`

const queryProjectDocuments = `
query ProjectDocuments($filter: ProjectFilter, $first: Int, $docsFirst: Int) {
  projects(filter: $filter, first: $first) {
    nodes {
      id
      documents(first: $docsFirst) {
        nodes { id title content url }
      }
    }
  }
}`

const mutationCreateDocument = `
mutation CreateDocument($input: DocumentCreateInput!) {
  documentCreate(input: $input) {
    document { id title content url }
  }
}`

const mutationUpdateDocument = `
mutation UpdateDocument($id: String!, $input: DocumentUpdateInput!) {
  documentUpdate(id: $id, input: $input) {
    document { id title content url }
  }
}`

const queryIssueLabels = `
query FindIssueLabels($filter: IssueLabelFilter, $first: Int) {
  issueLabels(filter: $filter, first: $first) {
    nodes { id name }
  }
}`

const mutationCreateIssueLabel = `
mutation CreateIssueLabel($input: IssueLabelCreateInput!) {
  issueLabelCreate(input: $input) {
    issueLabel { id name }
  }
}`

const mutationCreateIssue = `
mutation CreateIssue($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    issue { id title description url createdAt }
  }
}`

const mutationUpdateIssue = `
mutation UpdateIssue($id: String!, $input: IssueUpdateInput!) {
  issueUpdate(id: $id, input: $input) {
    issue { id title description url }
  }
}`

const mutationArchiveIssue = `
mutation ArchiveIssue($id: String!, $trash: Boolean) {
  issueArchive(id: $id, trash: $trash) {
    success
  }
}`

const queryTeamWorkflowStates = `
query FindTeamStates($first: Int, $statesFirst: Int) {
  teams(first: $first) {
    nodes {
      id
      states(first: $statesFirst) { nodes { id name type } }
    }
  }
}`

const queryIssueByID = `
query IssueByID($filter: IssueFilter, $first: Int, $childrenFirst: Int) {
  issues(filter: $filter, first: $first) {
    nodes {
      id title description url createdAt
      state { type }
      labels { nodes { id name } }
      project { id }
      children(first: $childrenFirst) {
        nodes {
          id title description url createdAt
          state { type }
          labels { nodes { id name } }
        }
      }
    }
  }
}`

const queryIssuesForProject = `
query IssuesForProject($filter: IssueFilter, $first: Int, $after: String) {
  issues(filter: $filter, first: $first, after: $after) {
    nodes {
      id title description url createdAt
      project { id }
    }
    pageInfo { hasNextPage endCursor }
  }
}`
